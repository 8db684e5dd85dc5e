package audit

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	appCtx "github.com/baechuer/real-time-ressys/services/ms-auth/internal/pkg/context"
)

// Logger provides structured audit logging for account and auth events
type Logger struct {
	log zerolog.Logger
}

// New creates a new audit logger
func New(log zerolog.Logger) *Logger {
	return &Logger{
		log: log.With().Bool("audit", true).Logger(),
	}
}

var messages = map[string]string{
	"register":     "User registered",
	"login":        "User logged in successfully",
	"login_failed": "Login attempt failed",
	"refresh":      "Token pair refreshed",
	"logout":       "User logged out",
	"deactivate":   "User account deactivated",
	"profile_edit": "User profile updated",
}

// Record is shaped to plug straight into auth.Service.WithAudit.
func (l *Logger) Record(ctx context.Context, action string, fields map[string]string) {
	ev := l.log.Info()
	if strings.HasSuffix(action, "_failed") {
		ev = l.log.Warn()
	}

	ev = ev.Str("action", action).Str("request_id", appCtx.GetRequestID(ctx))
	for k, v := range fields {
		if k == "email" {
			v = maskEmail(v)
		}
		ev = ev.Str(k, v)
	}

	msg, ok := messages[action]
	if !ok {
		msg = action
	}
	ev.Msg(msg)
}

// Deactivated logs a self-service account deactivation
func (l *Logger) Deactivated(ctx context.Context, userID string) {
	l.Record(ctx, "deactivate", map[string]string{"user_id": userID})
}

// ProfileUpdated logs a profile edit
func (l *Logger) ProfileUpdated(ctx context.Context, userID string) {
	l.Record(ctx, "profile_edit", map[string]string{"user_id": userID})
}

// maskEmail partially masks email for privacy in logs
func maskEmail(email string) string {
	if len(email) < 5 {
		return "***"
	}
	// Show first 2 chars and domain
	at := strings.IndexByte(email, '@')
	if at < 0 {
		return email[:2] + "***"
	}
	if at < 2 {
		return email[:1] + "***" + email[at:]
	}
	return email[:2] + "***" + email[at:]
}
