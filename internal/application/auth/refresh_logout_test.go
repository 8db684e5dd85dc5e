package auth

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/domain"
)

func TestRefresh_NonDestructive_OriginalStaysUsable(t *testing.T) {
	t.Parallel()

	env := newSvcForTest(t)
	reg := env.register(t, "a@x.com", "secret1", "A")

	first, err := env.svc.Refresh(context.Background(), reg.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	second, err := env.svc.Refresh(context.Background(), reg.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("second refresh with original token: %v", err)
	}

	if first.Tokens == second.Tokens || first.Tokens == reg.Tokens {
		t.Fatalf("each refresh must issue a new pair")
	}
	if env.ledger.count() != 3 {
		t.Fatalf("expected 3 live ledger rows, got %d", env.ledger.count())
	}
	requireAuditAction(t, env.audits, "refresh")
}

func TestRefresh_Failures_CollapseToOneError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		setup func(t *testing.T, env *testEnv) string
	}{
		{"empty", func(t *testing.T, env *testEnv) string { return "" }},
		{"malformed", func(t *testing.T, env *testEnv) string { return "garbage" }},
		{"never_issued", func(t *testing.T, env *testEnv) string { return "refresh:someone:99" }},
		{"signature_expired", func(t *testing.T, env *testEnv) string {
			reg := env.register(t, "a@x.com", "pw", "A")
			env.issuer.expired[reg.Tokens.RefreshToken] = true
			return reg.Tokens.RefreshToken
		}},
		{"ledger_expired", func(t *testing.T, env *testEnv) string {
			reg := env.register(t, "a@x.com", "pw", "A")
			*env.clock = env.clock.Add(domain.RefreshTokenRetention)
			return reg.Tokens.RefreshToken
		}},
		{"ledger_error", func(t *testing.T, env *testEnv) string {
			reg := env.register(t, "a@x.com", "pw", "A")
			env.ledger.findErr = domain.ErrDBUnavailable(errors.New("down"))
			return reg.Tokens.RefreshToken
		}},
		{"subject_mismatch", func(t *testing.T, env *testEnv) string {
			reg := env.register(t, "a@x.com", "pw", "A")
			rt := env.ledger.byToken[reg.Tokens.RefreshToken]
			rt.UserID = "other"
			env.ledger.byToken[reg.Tokens.RefreshToken] = rt
			env.users.byID["other"] = domain.User{ID: "other", IsActive: true}
			return reg.Tokens.RefreshToken
		}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			env := newSvcForTest(t)
			tok := tc.setup(t, env)

			_, err := env.svc.Refresh(context.Background(), tok)
			requireErrCode(t, err, "refresh_token_invalid")
			requireErrMessage(t, err, "Invalid refresh token")
		})
	}
}

func TestRefresh_JustBeforeLedgerExpiry_Succeeds(t *testing.T) {
	t.Parallel()

	env := newSvcForTest(t)
	reg := env.register(t, "a@x.com", "pw", "A")
	*env.clock = env.clock.Add(domain.RefreshTokenRetention - 1)

	if _, err := env.svc.Refresh(context.Background(), reg.Tokens.RefreshToken); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestRefresh_IssueFailure_NotCollapsed(t *testing.T) {
	t.Parallel()

	env := newSvcForTest(t)
	reg := env.register(t, "a@x.com", "pw", "A")
	env.issuer.issueFn = func(domain.Claims) (domain.TokenPair, error) {
		return domain.TokenPair{}, errors.New("boom")
	}

	_, err := env.svc.Refresh(context.Background(), reg.Tokens.RefreshToken)
	requireErrCode(t, err, "token_sign_failed")
}

func TestRefresh_Concurrent_SameToken_BothSucceed(t *testing.T) {
	t.Parallel()

	env := newSvcForTest(t)
	reg := env.register(t, "a@x.com", "pw", "A")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.svc.Refresh(context.Background(), reg.Tokens.RefreshToken)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("refresh %d: %v", i, err)
		}
	}
	if env.ledger.count() != 3 {
		t.Fatalf("expected 3 ledger rows, got %d", env.ledger.count())
	}
}

func TestLogout_RevokesToken_AndIsIdempotent(t *testing.T) {
	t.Parallel()

	env := newSvcForTest(t)
	reg := env.register(t, "a@x.com", "pw", "A")
	ctx := context.Background()

	if err := env.svc.Logout(ctx, reg.User.ID, reg.Tokens.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	requireAuditAction(t, env.audits, "logout")

	_, err := env.svc.Refresh(ctx, reg.Tokens.RefreshToken)
	requireErrCode(t, err, "refresh_token_invalid")

	if err := env.svc.Logout(ctx, reg.User.ID, reg.Tokens.RefreshToken); err != nil {
		t.Fatalf("second logout must succeed, got %v", err)
	}
}

func TestLogout_OtherUsersToken_Untouched(t *testing.T) {
	t.Parallel()

	env := newSvcForTest(t)
	a := env.register(t, "a@x.com", "pw", "A")
	b := env.register(t, "b@x.com", "pw", "B")

	if err := env.svc.Logout(context.Background(), a.User.ID, b.Tokens.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := env.svc.Refresh(context.Background(), b.Tokens.RefreshToken); err != nil {
		t.Fatalf("b's token must survive, got %v", err)
	}
}

func TestLogout_EmptyInputs_NoOp(t *testing.T) {
	t.Parallel()

	env := newSvcForTest(t)
	if err := env.svc.Logout(context.Background(), "", ""); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if _, ok := lastAudit(env.audits); ok {
		t.Fatalf("no audit expected for a no-op")
	}
}

func TestScenario_RegisterLoginRefreshLogout(t *testing.T) {
	t.Parallel()

	env := newSvcForTest(t)
	ctx := context.Background()

	reg := env.register(t, "a@x.com", "secret1", "A")

	login, err := env.svc.Login(ctx, "a@x.com", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if login.Tokens == reg.Tokens {
		t.Fatalf("login pair must differ from register pair")
	}

	ref, err := env.svc.Refresh(ctx, login.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if err := env.svc.Logout(ctx, reg.User.ID, ref.Tokens.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}

	_, err = env.svc.Refresh(ctx, ref.Tokens.RefreshToken)
	requireErrCode(t, err, "refresh_token_invalid")
}
