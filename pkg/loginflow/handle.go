package loginflow

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mentorhub/mentor-idm/pkg/identity"
	"github.com/mentorhub/mentor-idm/pkg/kvstore"
	"github.com/mentorhub/mentor-idm/pkg/twofa"
)

// Handle serves the login endpoints
type Handle struct {
	flowService *LoginFlowService
}

// NewHandle creates a new Handle
func NewHandle(flowService *LoginFlowService) *Handle {
	return &Handle{flowService: flowService}
}

// Routes returns an http.Handler for the login API
func Routes(h *Handle) http.Handler {
	r := chi.NewRouter()

	r.Post("/login", h.Login)
	r.Post("/login/2fa", h.VerifyTwoFactor)

	return r
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TwoFactorRequest struct {
	TwoFactorToken string `json:"twoFactorToken"`
	Code           string `json:"code"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// Login handles the password step
// (POST /login)
func (h *Handle) Login(w http.ResponseWriter, r *http.Request) {
	var data LoginRequest
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		respondStatus(w, r, http.StatusBadRequest, "unable to parse body")
		return
	}

	result, err := h.flowService.Login(r.Context(), data.Email, data.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.JSON(w, r, result)
}

// VerifyTwoFactor handles the second factor step. The request must carry the
// twoFactorToken issued by the password step.
// (POST /login/2fa)
func (h *Handle) VerifyTwoFactor(w http.ResponseWriter, r *http.Request) {
	var data TwoFactorRequest
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		respondStatus(w, r, http.StatusBadRequest, "unable to parse body")
		return
	}

	result, err := h.flowService.VerifyTwoFactor(r.Context(), data.TwoFactorToken, data.Code)
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.JSON(w, r, result)
}

func respondStatus(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: msg})
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, identity.ErrInvalidCredentials):
		respondStatus(w, r, http.StatusUnauthorized, err.Error())
	case errors.Is(err, identity.ErrInvalidTempToken):
		respondStatus(w, r, http.StatusUnauthorized, err.Error())
	case errors.Is(err, twofa.ErrInvalidCode):
		respondStatus(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, twofa.ErrCredentialNotEnabled):
		respondStatus(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, kvstore.ErrUnavailable):
		slog.Error("Store unavailable", "error", err)
		respondStatus(w, r, http.StatusServiceUnavailable, "store unavailable")
	default:
		slog.Error("Unexpected error handling login request", "error", err)
		respondStatus(w, r, http.StatusInternalServerError, "internal error")
	}
}
