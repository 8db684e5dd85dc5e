package http_handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/domain"
	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/transport/http/dto"
	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/transport/http/middleware"
	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/transport/http/response"
)

// UserStore is the slice of accounts.Store the users endpoints need.
type UserStore interface {
	FindAllActive(ctx context.Context) ([]domain.User, error)
	FindByID(ctx context.Context, id string) (domain.User, error)
	Update(ctx context.Context, id string, patch domain.UserPatch) (domain.User, error)
	Deactivate(ctx context.Context, id string) (domain.User, error)
}

// UserAuditor records self-service account changes.
type UserAuditor interface {
	ProfileUpdated(ctx context.Context, userID string)
	Deactivated(ctx context.Context, userID string)
}

type UsersHandler struct {
	store UserStore
	audit UserAuditor
}

func NewUsersHandler(store UserStore, audit UserAuditor) *UsersHandler {
	return &UsersHandler{store: store, audit: audit}
}

// Health handles GET /users/health
func (h *UsersHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.OK(w, dto.HealthView{Status: "ok", Service: "users"})
}

// List handles GET /users
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	us, err := h.store.FindAllActive(r.Context())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewUserViews(us))
}

// Get handles GET /users/{id}
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		response.WriteError(w, r, domain.ErrMissingField("id"))
		return
	}

	u, err := h.store.FindByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewUserView(u.Public()))
}

// UpdateMe handles PATCH /users/me
func (h *UsersHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	uid, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrTokenMissing())
		return
	}

	var req dto.UpdateMeRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	u, err := h.store.Update(r.Context(), uid, domain.UserPatch{Name: req.Name, AvatarURL: req.AvatarURL})
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	if h.audit != nil {
		h.audit.ProfileUpdated(r.Context(), uid)
	}
	response.OK(w, dto.NewUserView(u.Public()))
}

// DeactivateMe handles DELETE /users/me
func (h *UsersHandler) DeactivateMe(w http.ResponseWriter, r *http.Request) {
	uid, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrTokenMissing())
		return
	}

	if _, err := h.store.Deactivate(r.Context(), uid); err != nil {
		response.WriteError(w, r, err)
		return
	}

	if h.audit != nil {
		h.audit.Deactivated(r.Context(), uid)
	}
	response.NoContent(w)
}
