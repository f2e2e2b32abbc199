package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/skuswap/backend/internal/infrastructure/auth"
	"github.com/skuswap/backend/internal/infrastructure/config"
	"github.com/skuswap/backend/internal/infrastructure/logger"
)

// token mints a bearer token for the admin API using the configured jwt.secret.
// The token is written to stdout so it can be piped into a header.
func main() {
	var (
		subject string
		ttl     time.Duration
	)
	flag.StringVar(&subject, "subject", "", "Who the token is for, e.g. an operator email")
	flag.DurationVar(&ttl, "ttl", 0, "Token lifetime (default jwt.token_ttl)")
	flag.Parse()

	log, err := logger.New(&logger.Config{
		Level:  "info",
		Format: "console",
		Output: "stderr",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	if subject == "" {
		log.Fatal("Subject required. Usage: token -subject <name> [-ttl 24h]")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	token, expiresAt, err := auth.NewJWTService(cfg.JWT).IssueToken(subject, ttl)
	if err != nil {
		log.Fatal("Failed to issue token", zap.Error(err))
	}

	log.Info("Token issued",
		zap.String("subject", subject),
		zap.Time("expires_at", expiresAt),
	)
	fmt.Println(token)
}
