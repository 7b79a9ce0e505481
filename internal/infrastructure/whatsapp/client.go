// Package whatsapp sends text messages through the WhatsApp Business Cloud
// API and builds wa.me deep links.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/tourist-verify-api/internal/config"
)

// Sender delivers a text message to a phone number (digits only, no +) and
// returns the provider message id.
type Sender interface {
	SendText(ctx context.Context, toDigits, body string) (string, error)
	Mode() string
}

// Client calls the Cloud API message-send endpoint with bearer-token auth.
// When the credentials are absent it runs in development mode: messages are
// logged instead of sent and a synthetic id is returned. The mode is fixed at
// construction from config presence, never inferred from token contents.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	accessToken   string
	phoneNumberID string
	configured    bool
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		baseURL:       cfg.WhatsAppAPIBaseURL,
		accessToken:   cfg.WhatsAppAccessToken,
		phoneNumberID: cfg.WhatsAppPhoneNumberID,
		configured:    cfg.WhatsAppConfigured,
	}
}

// Mode reports "live" or "development" so callers can surface which path a
// send took.
func (c *Client) Mode() string {
	if c.configured {
		return "live"
	}
	return "development"
}

type sendRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type textBody struct {
	Body string `json:"body"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// SendText delivers a text message via the Cloud API and returns the provider
// message id. In development mode it logs the message and synthesizes an id.
func (c *Client) SendText(ctx context.Context, toDigits, body string) (string, error) {
	if !c.configured {
		slog.Info("whatsapp not configured, development-mode send", "to", toDigits, "body", body)
		return fmt.Sprintf("dev_%d", time.Now().UnixMilli()), nil
	}

	payload, err := json.Marshal(sendRequest{
		MessagingProduct: "whatsapp",
		To:               toDigits,
		Type:             "text",
		Text:             textBody{Body: body},
	})
	if err != nil {
		return "", fmt.Errorf("marshal whatsapp payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build whatsapp request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("whatsapp http error: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("whatsapp api status %d: %s", resp.StatusCode, string(respBody))
	}

	var out sendResponse
	if err := json.Unmarshal(respBody, &out); err != nil || len(out.Messages) == 0 {
		// Accepted but no message id in the response; not worth failing the send.
		slog.Warn("whatsapp response missing message id", "status", resp.StatusCode)
		return "", nil
	}
	return out.Messages[0].ID, nil
}

// DeepLink builds a https://wa.me link that opens WhatsApp with a prefilled
// message. No network call is involved; the client opens the URL directly.
func DeepLink(toDigits, text string) string {
	return fmt.Sprintf("https://wa.me/%s?text=%s", toDigits, url.QueryEscape(text))
}
