package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tourist-verify-api/internal/domain"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already normalized", "+212612345678", "+212612345678"},
		{"missing plus", "212612345678", "+212612345678"},
		{"punctuation stripped", "+212 (6) 12-34-56.78", "+212612345678"},
		{"french number", "+33 6 98 76 54 32", "+33698765432"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "12345", "+123456789012345678"} {
		_, err := Normalize(in)
		assert.ErrorIs(t, err, domain.ErrBadRequest, "input %q", in)
	}
}

func TestDigits(t *testing.T) {
	assert.Equal(t, "212612345678", Digits("+212612345678"))
	assert.Equal(t, "212612345678", Digits("212612345678"))
}

func TestRecommendMethod(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		want  string
	}{
		{"morocco high penetration", "+212612345678", domain.MethodWhatsAppCloudAPI},
		{"france high penetration", "+33698765432", domain.MethodWhatsAppCloudAPI},
		{"brazil high penetration", "+5511987654321", domain.MethodWhatsAppCloudAPI},
		{"us low penetration", "+12025550123", domain.MethodSMS},
		{"japan low penetration", "+819012345678", domain.MethodSMS},
		{"unknown prefix defaults to whatsapp", "+999812345678", domain.MethodWhatsAppCloudAPI},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RecommendMethod(tt.phone))
		})
	}
}

func TestPenetration_LongestPrefixWins(t *testing.T) {
	// +971 (UAE) must not be read as +9 then +97.
	assert.Equal(t, 80, Penetration("+971501234567"))
	// +1 matches the single-digit NANP prefix.
	assert.Equal(t, 30, Penetration("+12025550123"))
}
