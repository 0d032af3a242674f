package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONB(t *testing.T) {
	j, err := NewJSONB(map[string]interface{}{"email": "agent@example.com"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"agent@example.com"}`, string(j))

	j, err = NewJSONB(nil)
	require.NoError(t, err)
	assert.Nil(t, j)
}

func TestJSONBScan(t *testing.T) {
	var j JSONB

	require.NoError(t, j.Scan([]byte(`{"role":"agent"}`)))
	assert.JSONEq(t, `{"role":"agent"}`, string(j))

	require.NoError(t, j.Scan(`{"role":"admin"}`))
	assert.JSONEq(t, `{"role":"admin"}`, string(j))

	require.NoError(t, j.Scan(nil))
	assert.Nil(t, j)

	assert.Error(t, j.Scan(42))
}

func TestJSONBValue(t *testing.T) {
	j := JSONB(`{"a":1}`)
	v, err := j.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"a":1}`), v)

	empty := JSONB(nil)
	v, err = empty.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}
