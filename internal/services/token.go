package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// invitationTokenBytes is the entropy of a raw invitation token. 32 bytes is
// double the 128-bit floor required for unguessability.
const invitationTokenBytes = 32

// generateInvitationToken returns a raw acceptance token and its SHA-256 hex
// digest. Only the digest is persisted; the raw token travels exclusively on
// the notification path.
func generateInvitationToken() (raw string, digest string, err error) {
	buf := make([]byte, invitationTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate invitation token: %w", err)
	}
	raw = base64.RawURLEncoding.EncodeToString(buf)
	return raw, digestToken(raw), nil
}

// digestToken maps a raw token to the stored digest form.
func digestToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
