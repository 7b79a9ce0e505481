package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tourist-verify-api/internal/config"
)

func TestSendText_Live(t *testing.T) {
	var gotAuth string
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "whatsapp", body["messaging_product"])
		assert.Equal(t, "212612345678", body["to"])
		assert.Equal(t, "text", body["type"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.test123"}]}`))
	}))
	defer srv.Close()

	c := NewClient(&config.Config{
		WhatsAppAPIBaseURL:    srv.URL,
		WhatsAppAccessToken:   "token",
		WhatsAppPhoneNumberID: "10001",
		WhatsAppConfigured:    true,
	})

	id, err := c.SendText(context.Background(), "212612345678", "Your code: 123456")
	require.NoError(t, err)
	assert.Equal(t, "wamid.test123", id)
	assert.Equal(t, "Bearer token", gotAuth)
	assert.Equal(t, "/10001/messages", gotPath)
	assert.Equal(t, "live", c.Mode())
}

func TestSendText_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad token"}}`))
	}))
	defer srv.Close()

	c := NewClient(&config.Config{
		WhatsAppAPIBaseURL:    srv.URL,
		WhatsAppAccessToken:   "expired",
		WhatsAppPhoneNumberID: "10001",
		WhatsAppConfigured:    true,
	})

	_, err := c.SendText(context.Background(), "212612345678", "Your code: 123456")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestSendText_DevelopmentMode(t *testing.T) {
	c := NewClient(&config.Config{WhatsAppConfigured: false})

	id, err := c.SendText(context.Background(), "212612345678", "Your code: 123456")
	require.NoError(t, err)
	assert.Regexp(t, `^dev_\d+$`, id)
	assert.Equal(t, "development", c.Mode())
}

func TestDeepLink(t *testing.T) {
	link := DeepLink("212612345678", "Your verification code: 123456")
	assert.Equal(t, "https://wa.me/212612345678?text=Your+verification+code%3A+123456", link)
}
