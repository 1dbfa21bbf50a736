package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/mentorhub/mentor-idm/pkg/account"
	"github.com/mentorhub/mentor-idm/pkg/kvstore"
	"github.com/mentorhub/mentor-idm/pkg/twofa"
)

// Handle serves the 2FA enrollment and verification endpoints
type Handle struct {
	twoFaService twofa.TwoFactorService
}

// NewHandle creates a new Handle
func NewHandle(twoFaService twofa.TwoFactorService) *Handle {
	return &Handle{twoFaService: twoFaService}
}

// Routes returns an http.Handler for the 2FA API
func Routes(h *Handle) http.Handler {
	r := chi.NewRouter()

	r.Post("/enroll", h.BeginEnrollment)
	r.Post("/enroll/verify", h.CompleteEnrollment)
	r.Get("/status", h.Status)
	r.Post("/verify", h.VerifySignIn)

	return r
}

type EnrollRequest struct {
	AccountID string `json:"accountId"`
	Label     string `json:"label,omitempty"`
}

type EnrollResponse struct {
	SecretBase32    string `json:"secretBase32"`
	ProvisioningURI string `json:"provisioningUri"`
}

type VerifyRequest struct {
	AccountID string `json:"accountId"`
	Code      string `json:"code"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// BeginEnrollment starts 2FA setup for an account
// (POST /enroll)
func (h *Handle) BeginEnrollment(w http.ResponseWriter, r *http.Request) {
	var data EnrollRequest
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		badRequest(w, r, "unable to parse body")
		return
	}

	accountID, err := uuid.Parse(data.AccountID)
	if err != nil {
		badRequest(w, r, "invalid account id")
		return
	}

	key, err := h.twoFaService.BeginEnrollment(r.Context(), accountID, data.Label)
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.JSON(w, r, EnrollResponse{
		SecretBase32:    key.SecretBase32,
		ProvisioningURI: key.ProvisioningURI,
	})
}

// CompleteEnrollment verifies the setup code and enables the credential
// (POST /enroll/verify)
func (h *Handle) CompleteEnrollment(w http.ResponseWriter, r *http.Request) {
	accountID, code, ok := decodeVerifyRequest(w, r)
	if !ok {
		return
	}

	if err := h.twoFaService.CompleteEnrollment(r.Context(), accountID, code); err != nil {
		respondError(w, r, err)
		return
	}

	render.JSON(w, r, SuccessResponse{Success: true})
}

// Status reports whether the account requires a second factor at sign-in
// (GET /status?accountId=)
func (h *Handle) Status(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(r.URL.Query().Get("accountId"))
	if err != nil {
		badRequest(w, r, "invalid account id")
		return
	}

	status, err := h.twoFaService.Status(r.Context(), accountID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.JSON(w, r, status)
}

// VerifySignIn validates the second factor after password verification; on
// success the caller completes session issuance with the identity provider
// (POST /verify)
func (h *Handle) VerifySignIn(w http.ResponseWriter, r *http.Request) {
	accountID, code, ok := decodeVerifyRequest(w, r)
	if !ok {
		return
	}

	if err := h.twoFaService.VerifySignIn(r.Context(), accountID, code); err != nil {
		respondError(w, r, err)
		return
	}

	render.JSON(w, r, SuccessResponse{Success: true})
}

func decodeVerifyRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, string, bool) {
	var data VerifyRequest
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		badRequest(w, r, "unable to parse body")
		return uuid.Nil, "", false
	}

	accountID, err := uuid.Parse(data.AccountID)
	if err != nil {
		badRequest(w, r, "invalid account id")
		return uuid.Nil, "", false
	}

	return accountID, data.Code, true
}

func badRequest(w http.ResponseWriter, r *http.Request, msg string) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, ErrorResponse{Error: msg})
}

// respondError maps service errors onto the HTTP contract. Invalid codes and
// missing records are expected outcomes; only store failures are logged as
// errors.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch {
	case errors.Is(err, account.ErrAccountNotFound):
		status = http.StatusNotFound
	case errors.Is(err, twofa.ErrCredentialAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, twofa.ErrNoPendingCredential):
		status = http.StatusNotFound
	case errors.Is(err, twofa.ErrCredentialNotEnabled):
		status = http.StatusForbidden
	case errors.Is(err, twofa.ErrInvalidCode):
		status = http.StatusBadRequest
	case errors.Is(err, kvstore.ErrUnavailable):
		slog.Error("Store unavailable", "error", err)
		status = http.StatusServiceUnavailable
	default:
		slog.Error("Unexpected error handling 2FA request", "error", err)
		status = http.StatusInternalServerError
	}

	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: err.Error()})
}
