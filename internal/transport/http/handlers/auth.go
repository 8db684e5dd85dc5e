package http_handlers

import (
	"net/http"

	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/application/auth"
	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/domain"
	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/logger"
	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/transport/http/dto"
	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/transport/http/middleware"
	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/transport/http/response"
)

type AuthHandler struct {
	svc *auth.Service
}

func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		middleware.RegistrationsTotal.WithLabelValues("invalid_json").Inc()
		response.WriteError(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		middleware.RegistrationsTotal.WithLabelValues(middleware.Outcome(err)).Inc()
		response.WriteError(w, r, err)
		return
	}

	res, err := h.svc.Register(r.Context(), auth.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		Name:      req.Name,
		AvatarURL: req.AvatarURL,
	})
	middleware.RegistrationsTotal.WithLabelValues(middleware.Outcome(err)).Inc()
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().
		Str("user_id", res.User.ID).
		Msg("user_registered")

	response.Created(w, dto.NewTokenPairView(res.Tokens))
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	middleware.LoginAttemptsTotal.WithLabelValues(middleware.Outcome(err)).Inc()
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().
		Str("user_id", res.User.ID).
		Msg("user_logged_in")

	response.OK(w, dto.NewTokenPairView(res.Tokens))
}

// Refresh handles POST /auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	// Any unreadable body is reported the same way as a bad token.
	var req dto.RefreshRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		err = domain.ErrRefreshTokenInvalid()
		middleware.TokenRefreshTotal.WithLabelValues(middleware.Outcome(err)).Inc()
		response.WriteError(w, r, err)
		return
	}

	res, err := h.svc.Refresh(r.Context(), req.RefreshToken)
	middleware.TokenRefreshTotal.WithLabelValues(middleware.Outcome(err)).Inc()
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	response.OK(w, dto.NewTokenPairView(res.Tokens))
}

// Logout handles POST /auth/logout (bearer). Removing an absent token is not an error.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	uid, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrTokenMissing())
		return
	}

	var req dto.LogoutRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	if err := h.svc.Logout(r.Context(), uid, req.RefreshToken); err != nil {
		response.WriteError(w, r, err)
		return
	}

	response.NoContent(w)
}

// Profile handles GET /auth/profile (bearer)
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	uid, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrTokenMissing())
		return
	}

	u, err := h.svc.GetProfile(r.Context(), uid)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	response.OK(w, dto.NewUserView(u))
}

// Health handles GET /auth/health
func (h *AuthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.OK(w, dto.HealthView{Status: "ok", Service: "ms-auth"})
}
