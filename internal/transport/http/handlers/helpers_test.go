package http_handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/application/accounts"
	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/application/auth"
	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/infrastructure/memory"
	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/infrastructure/security"
	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/transport/http/middleware"
)

type testKit struct {
	auth   *AuthHandler
	users  *UsersHandler
	store  *accounts.Store
	issuer *security.JWTIssuer
	audit  *fakeAuditor
}

type fakeAuditor struct {
	updated     []string
	deactivated []string
}

func (f *fakeAuditor) ProfileUpdated(_ context.Context, id string) { f.updated = append(f.updated, id) }
func (f *fakeAuditor) Deactivated(_ context.Context, id string)    { f.deactivated = append(f.deactivated, id) }

func newTestKit(t *testing.T) *testKit {
	t.Helper()

	repo := memory.NewUserRepo()
	store := accounts.NewStore(repo, security.NewBcryptHasher(4), memory.NewNoopPublisher())
	issuer := security.NewJWTIssuer(security.JWTConfig{
		AccessSecret:  "access-secret",
		AccessTTL:     15 * time.Minute,
		RefreshSecret: "refresh-secret",
		RefreshTTL:    time.Hour,
		Issuer:        "ms-auth",
	})
	svc := auth.NewService(store, issuer, memory.NewLedger(repo))
	aud := &fakeAuditor{}

	return &testKit{
		auth:   NewAuthHandler(svc),
		users:  NewUsersHandler(store, aud),
		store:  store,
		issuer: issuer,
		audit:  aud,
	}
}

// mustJSONBody marshals v to JSON and returns an io.Reader for request body.
func mustJSONBody(t *testing.T, v any) io.Reader {
	t.Helper()

	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("json marshal: %v", err)
	}
	return bytes.NewReader(b)
}

func mustReadJSON(t *testing.T, r io.Reader, out any) {
	t.Helper()

	raw, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatalf("decode json failed: %v; body=%s", err, string(raw))
	}
}

func errCodeOf(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	mustReadJSON(t, rr.Body, &body)
	return body.Error.Code
}

func postJSON(t *testing.T, path string, v any) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, mustJSONBody(t, v))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// withUserCtx injects the bearer identity the way middleware.Auth does.
func withUserCtx(req *http.Request, userID string) *http.Request {
	ctx := middleware.WithUser(req.Context(), middleware.Identity{UserID: userID})
	return req.WithContext(ctx)
}

// withURLParam injects chi URL param (e.g. /users/{id}) into request context.
func withURLParam(req *http.Request, key, val string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, val)

	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	return req.WithContext(ctx)
}

type pairBody struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// register creates an account through the handler and returns its tokens and id.
func (k *testKit) register(t *testing.T, email string) (pairBody, string) {
	t.Helper()

	rr := httptest.NewRecorder()
	k.auth.Register(rr, postJSON(t, "/auth/register", map[string]any{
		"email": email, "password": "secret1", "name": "Tester",
	}))
	if rr.Code != http.StatusCreated {
		t.Fatalf("setup register expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var p pairBody
	mustReadJSON(t, rr.Body, &p)

	claims, err := k.issuer.VerifyAccess(p.AccessToken)
	if err != nil {
		t.Fatalf("verify access: %v", err)
	}
	return p, claims.Subject
}
