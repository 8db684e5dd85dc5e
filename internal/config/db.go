package config

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"

	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/logger"
)

const dbConnectTimeout = 3 * time.Second

// NewDB opens a pgx-backed pool and pings it before returning. With debug on
// it also logs which server, role and database it reached.
func NewDB(dsn string, debug bool) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("empty DB DSN")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), dbConnectTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	if debug {
		logConnInfo(ctx, db, logger.Logger)
	}
	return db, nil
}

// logConnInfo reports the connected role, database and server version. Lookup
// failures leave the field empty; this never fails the connect.
func logConnInfo(ctx context.Context, db *sql.DB, lg zerolog.Logger) {
	var who, dbname, ver string
	_ = db.QueryRowContext(ctx, "SELECT current_user").Scan(&who)
	_ = db.QueryRowContext(ctx, "SELECT current_database()").Scan(&dbname)
	_ = db.QueryRowContext(ctx, "SHOW server_version").Scan(&ver)

	lg.Info().
		Str("user", who).
		Str("db", dbname).
		Str("version", ver).
		Msg("db connected")
}
