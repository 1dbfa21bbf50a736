package signup

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mentorhub/mentor-idm/pkg/account"
	"github.com/mentorhub/mentor-idm/pkg/kvstore"
)

// Handle serves the signup endpoint
type Handle struct {
	signupService *SignupService
}

// NewHandle creates a new Handle
func NewHandle(signupService *SignupService) *Handle {
	return &Handle{signupService: signupService}
}

// Routes returns an http.Handler for the signup API, mounted at the
// signup path by the caller
func Routes(h *Handle) http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.Signup)
	return r
}

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type AccountResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type TwoFactorSetupResponse struct {
	SecretBase32    string `json:"secretBase32"`
	ProvisioningURI string `json:"provisioningUri"`
}

type SignupResponse struct {
	Account        AccountResponse         `json:"account"`
	TwoFactorSetup *TwoFactorSetupResponse `json:"twoFactorSetup,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// Signup registers a new account
// (POST /signup)
func (h *Handle) Signup(w http.ResponseWriter, r *http.Request) {
	var data SignupRequest
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		respondStatus(w, r, http.StatusBadRequest, "unable to parse body")
		return
	}

	result, err := h.signupService.Signup(r.Context(), data.Email, data.Password, data.Role)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := SignupResponse{
		Account: AccountResponse{
			ID:    result.Account.ID.String(),
			Email: result.Account.Email,
			Role:  string(result.Account.Role),
		},
	}
	if result.TwoFactorSetup != nil {
		resp.TwoFactorSetup = &TwoFactorSetupResponse{
			SecretBase32:    result.TwoFactorSetup.SecretBase32,
			ProvisioningURI: result.TwoFactorSetup.ProvisioningURI,
		}
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, resp)
}

func respondStatus(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: msg})
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var emailErr account.ErrEmailAlreadyExists
	var pwdErr ErrPasswordTooShort

	switch {
	case errors.As(err, &emailErr):
		respondStatus(w, r, http.StatusConflict, err.Error())
	case errors.As(err, &pwdErr):
		respondStatus(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrRegistrationDisabled):
		respondStatus(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, kvstore.ErrUnavailable):
		slog.Error("Store unavailable", "error", err)
		respondStatus(w, r, http.StatusServiceUnavailable, "store unavailable")
	default:
		// Role parse failures land here as plain 400s
		respondStatus(w, r, http.StatusBadRequest, err.Error())
	}
}
