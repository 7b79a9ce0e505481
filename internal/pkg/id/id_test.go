package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSession_Format(t *testing.T) {
	sid := NewSession("wa")
	parts := strings.Split(sid, "_")
	require.Len(t, parts, 3)
	assert.Equal(t, "wa", parts[0])
	assert.Regexp(t, `^\d{13,}$`, parts[1])
	assert.Len(t, parts[2], 8)
}

func TestNewSession_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		sid := NewSession("sms")
		assert.False(t, seen[sid], "duplicate session id %s", sid)
		seen[sid] = true
	}
}
