// cmd/tool is an operator CLI for ms-auth: schema migrations, dev seeding,
// ledger purges and minting access tokens for load tests.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/config"
	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/domain"
	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/infrastructure/db/postgres"
	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/infrastructure/security"
	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/logger"
)

const usage = `usage: tool <command> [flags]

commands:
  migrate         apply embedded schema migrations
  seed            create the dev demo user if absent
  purge           delete expired refresh tokens
  token -n N      print N signed access tokens for load testing
`

func main() {
	config.LoadDotEnv()
	logger.Init()
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}

	switch args[0] {
	case "migrate", "seed", "purge":
		return withDB(ctx, cfg, args[0], stdout, stderr)
	case "token":
		return mintTokens(ctx, cfg, args[1:], stdout, stderr)
	default:
		fmt.Fprint(stderr, usage)
		return 2
	}
}

func withDB(ctx context.Context, cfg *config.Config, cmd string, stdout, stderr io.Writer) int {
	db, err := config.NewDB(cfg.DBAddr, cfg.DBDebug)
	if err != nil {
		fmt.Fprintf(stderr, "db: %v\n", err)
		return 1
	}
	defer db.Close()

	switch cmd {
	case "migrate":
		err = postgres.Migrate(ctx, db)
		if err == nil {
			fmt.Fprintln(stdout, "migrations applied")
		}
	case "seed":
		n := postgres.SeedUsers(ctx, postgres.NewUserRepo(db), security.NewBcryptHasher(cfg.BcryptCost), postgres.DevSeeds)
		fmt.Fprintf(stdout, "seeded %d user(s)\n", n)
	case "purge":
		var n int64
		n, err = postgres.NewRefreshTokenRepo(db).PurgeExpired(ctx)
		if err == nil {
			fmt.Fprintf(stdout, "purged %d expired refresh token(s)\n", n)
		}
	}
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", cmd, err)
		return 1
	}
	return 0
}

// mintTokens signs access tokens for synthetic users. The tokens are valid for
// the configured access TTL but their subjects do not exist in the store.
func mintTokens(ctx context.Context, cfg *config.Config, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(stderr)
	n := fs.Int("n", 1, "number of tokens")
	ttl := fs.Duration("ttl", cfg.AccessTokenTTL, "access token lifetime")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *n <= 0 {
		fmt.Fprintln(stderr, "token: -n must be positive")
		return 2
	}

	issuer := security.NewJWTIssuer(security.JWTConfig{
		AccessSecret:  cfg.JWTSecret,
		AccessTTL:     *ttl,
		RefreshSecret: cfg.RefreshTokenSecret,
		RefreshTTL:    cfg.RefreshTokenTTL,
		Issuer:        cfg.JWTIssuer,
	})

	w := bufio.NewWriter(stdout)
	defer w.Flush()

	start := time.Now()
	for i := 0; i < *n; i++ {
		uid := uuid.NewString()
		pair, err := issuer.Issue(ctx, domain.Claims{
			Subject: uid,
			Email:   fmt.Sprintf("load-%d@example.com", i),
			Name:    fmt.Sprintf("user-%d", i),
		})
		if err != nil {
			fmt.Fprintf(stderr, "token: %v\n", err)
			return 1
		}
		fmt.Fprintln(w, pair.AccessToken)
	}
	logger.Logger.Info().Int("count", *n).Dur("took", time.Since(start)).Msg("tokens minted")
	return 0
}
