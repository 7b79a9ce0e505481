package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tourist-verify-api/internal/application/verification"
	"github.com/tourist-verify-api/internal/domain"
)

func TestSendHandler_OK(t *testing.T) {
	svc := &mockVerificationSvc{}
	svc.On("Send", mock.Anything, domain.SendCodeRequest{Phone: "+212612345678"}).
		Return(&verification.SendResult{
			SessionID: "wa_1_a",
			Phone:     "+212612345678",
			Method:    domain.MethodWhatsAppCloudAPI,
			ExpiresAt: 1756380000,
		}, nil)

	h := NewVerificationHandler(svc)
	req := httptest.NewRequest(http.MethodPost, "/v1/verification/send",
		strings.NewReader(`{"phone":"+212612345678"}`))
	rr := httptest.NewRecorder()
	h.Send(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	assert.Equal(t, true, env["success"])
	assert.Equal(t, "wa_1_a", env["id"])
}

func TestSendHandler_InvalidBody(t *testing.T) {
	h := NewVerificationHandler(&mockVerificationSvc{})
	req := httptest.NewRequest(http.MethodPost, "/v1/verification/send", strings.NewReader("{"))
	rr := httptest.NewRecorder()
	h.Send(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSendHandler_MissingPhone(t *testing.T) {
	h := NewVerificationHandler(&mockVerificationSvc{})
	req := httptest.NewRequest(http.MethodPost, "/v1/verification/send", strings.NewReader(`{"method":"sms"}`))
	rr := httptest.NewRecorder()
	h.Send(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSendHandler_DeliveryFailure_BadGateway(t *testing.T) {
	svc := &mockVerificationSvc{}
	svc.On("Send", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("whatsapp send: boom: %w", domain.ErrDeliveryFailed))

	h := NewVerificationHandler(svc)
	req := httptest.NewRequest(http.MethodPost, "/v1/verification/send",
		strings.NewReader(`{"phone":"+212612345678"}`))
	rr := httptest.NewRecorder()
	h.Send(rr, req)

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), `"success":false`)
}

func TestConfirmHandler_OK(t *testing.T) {
	svc := &mockVerificationSvc{}
	svc.On("Confirm", mock.Anything, domain.ConfirmCodeRequest{SessionID: "wa_1_a", Code: "482913"}).
		Return(&verification.ConfirmResult{
			SessionID: "wa_1_a",
			Status:    domain.StatusVerified,
			Profile:   &domain.TouristProfile{Phone: "+212612345678", PhoneVerified: true},
		}, nil)

	h := NewVerificationHandler(svc)
	req := httptest.NewRequest(http.MethodPost, "/v1/verification/confirm",
		strings.NewReader(`{"session_id":"wa_1_a","code":"482913"}`))
	rr := httptest.NewRecorder()
	h.Confirm(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"verified"`)
}

func TestConfirmHandler_CodeValidation(t *testing.T) {
	h := NewVerificationHandler(&mockVerificationSvc{})

	for _, body := range []string{
		`{"session_id":"wa_1_a","code":"12345"}`,  // too short
		`{"session_id":"wa_1_a","code":"12345a"}`, // non-numeric
		`{"session_id":"wa_1_a"}`,                 // missing
	} {
		req := httptest.NewRequest(http.MethodPost, "/v1/verification/confirm", strings.NewReader(body))
		rr := httptest.NewRecorder()
		h.Confirm(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
	}
}

func TestConfirmHandler_ExpiredAndMismatch(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("code expired: %w", domain.ErrExpired), http.StatusBadRequest},
		{fmt.Errorf("invalid code: %w", domain.ErrCodeMismatch), http.StatusBadRequest},
		{fmt.Errorf("attempt limit reached: %w", domain.ErrTooManyAttempts), http.StatusTooManyRequests},
		{fmt.Errorf("get session: %w", domain.ErrNotFound), http.StatusNotFound},
	}
	for _, tc := range cases {
		svc := &mockVerificationSvc{}
		svc.On("Confirm", mock.Anything, mock.Anything).Return(nil, tc.err)

		h := NewVerificationHandler(svc)
		req := httptest.NewRequest(http.MethodPost, "/v1/verification/confirm",
			strings.NewReader(`{"session_id":"wa_1_a","code":"482913"}`))
		rr := httptest.NewRecorder()
		h.Confirm(rr, req)
		assert.Equal(t, tc.want, rr.Code, tc.err.Error())
	}
}

func TestStatusHandler_OK(t *testing.T) {
	svc := &mockVerificationSvc{}
	svc.On("Status", mock.Anything, "wa_1_a").
		Return(&verification.StatusResult{SessionID: "wa_1_a", Status: domain.StatusPending, ExpiresAt: 1756380000}, nil)

	h := NewVerificationHandler(svc)

	r := chi.NewRouter()
	r.Get("/v1/verification/status/{id}", h.Status)
	req := httptest.NewRequest(http.MethodGet, "/v1/verification/status/wa_1_a", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"pending"`)
}

func TestStatusHandler_NotFound(t *testing.T) {
	svc := &mockVerificationSvc{}
	svc.On("Status", mock.Anything, "missing").Return(nil, fmt.Errorf("get session: %w", domain.ErrNotFound))

	h := NewVerificationHandler(svc)
	r := chi.NewRouter()
	r.Get("/v1/verification/status/{id}", h.Status)
	req := httptest.NewRequest(http.MethodGet, "/v1/verification/status/missing", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
