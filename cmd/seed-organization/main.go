// Package main implements a bootstrap script that creates an organization with
// its owner account. Every organization starts with the owner occupying one
// seat; invitations fill the rest.
//
// Usage:
//
//	./seed-organization --name="Acme" --slug=acme --owner-email=owner@acme.com
//	./seed-organization --name="Acme" --slug=acme --owner-email=owner@acme.com --max-seats=10
//	./seed-organization --dry-run ...          # Preview without writing
//
// Environment Variables:
//
//	DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME, DB_SSLMODE
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"team-service/internal/config"
	"team-service/internal/models"
	"team-service/internal/repository"
)

func main() {
	var (
		name       = flag.String("name", "", "organization display name (required)")
		slug       = flag.String("slug", "", "organization slug (required)")
		ownerEmail = flag.String("owner-email", "", "owner account email (required)")
		ownerName  = flag.String("owner-name", "", "owner full name")
		maxSeats   = flag.Int("max-seats", 5, "licensed seat cap")
		dryRun     = flag.Bool("dry-run", false, "preview without writing")
	)
	flag.Parse()

	if *name == "" || *slug == "" || *ownerEmail == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *maxSeats < 1 {
		log.Fatal("max-seats must be at least 1: the owner always holds a seat")
	}

	cfg := config.New()
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.User,
		cfg.Database.Password, cfg.Database.Name, cfg.Database.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if *dryRun {
		fmt.Printf("[dry-run] would create organization %q (slug=%s, seats=%d) owned by %s\n",
			*name, *slug, *maxSeats, *ownerEmail)
		return
	}

	if err := repository.Migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	slog := logrus.New()
	orgRepo := repository.NewOrganizationRepository(db, slog)
	profileRepo := repository.NewProfileRepository(db, slog)

	if _, err := orgRepo.GetBySlug(ctx, *slug); err == nil {
		log.Fatalf("organization with slug %q already exists", *slug)
	} else if !errors.Is(err, repository.ErrOrganizationNotFound) {
		log.Fatalf("failed to check slug: %v", err)
	}

	org := &models.Organization{
		Name:            *name,
		Slug:            *slug,
		DisplayName:     *name,
		Status:          "active",
		MaxTeamMembers:  *maxSeats,
		UsedTeamMembers: 1,
	}
	if err := orgRepo.Create(ctx, org); err != nil {
		log.Fatalf("failed to create organization: %v", err)
	}

	owner := &models.User{Email: *ownerEmail, FullName: *ownerName, Status: "active"}
	if err := db.WithContext(ctx).Where("email = ?", *ownerEmail).FirstOrCreate(owner).Error; err != nil {
		log.Fatalf("failed to create owner user: %v", err)
	}

	profile, err := profileRepo.CreateOwner(ctx, org.ID, owner.ID)
	if err != nil {
		log.Fatalf("failed to create owner profile: %v", err)
	}

	fmt.Printf("created organization %s (id=%s) with owner %s (profile id=%s)\n",
		org.Slug, org.ID, owner.Email, profile.ID)
}
