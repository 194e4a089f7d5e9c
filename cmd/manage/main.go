// Command manage is the operational CLI: user provisioning, token issuance,
// secret generation, and database migrations.
package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/release-agent/modules/auth"
	"github.com/dmitrymomot/release-agent/modules/tokens"
	"github.com/dmitrymomot/release-agent/modules/users"
	"github.com/dmitrymomot/release-agent/pkg/apitoken"
	"github.com/dmitrymomot/release-agent/pkg/config"
	"github.com/dmitrymomot/release-agent/pkg/jwt"
	"github.com/dmitrymomot/release-agent/pkg/logger"
	"github.com/dmitrymomot/release-agent/pkg/pg"
)

type manageConfig struct {
	TokenSecret    string        `env:"TOKEN_SECRET"`
	TokenAlgorithm jwt.Algorithm `env:"TOKEN_ALGORITHM" envDefault:"HS256"`

	Logger   logger.Config
	Postgres pg.Config
}

const usage = `Usage: manage <command> [flags]

Commands:
  create-user      Create a user account
  change-password  Reset a user's password to a random one
  create-token     Issue an API token for a user
  generate-secret  Print a random signing secret
  migrate          Apply pending database migrations
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	// generate-secret needs no config or database.
	if os.Args[1] == "generate-secret" {
		secret := make([]byte, 48)
		if _, err := rand.Read(secret); err != nil {
			fatal(fmt.Errorf("generate secret: %w", err))
		}
		fmt.Println(base64.RawURLEncoding.EncodeToString(secret))
		return
	}

	var cfg manageConfig
	if err := config.Load(&cfg); err != nil {
		fatal(fmt.Errorf("load config: %w", err))
	}
	log := logger.NewFromConfig(cfg.Logger, "manage")
	slog.SetDefault(log)

	ctx := context.Background()
	pool, err := pg.Connect(ctx, cfg.Postgres)
	if err != nil {
		fatal(fmt.Errorf("connect postgres: %w", err))
	}
	defer pool.Close()

	switch os.Args[1] {
	case "create-user":
		err = createUser(ctx, pool, os.Args[2:])
	case "change-password":
		err = changePassword(ctx, pool, os.Args[2:])
	case "create-token":
		err = createToken(ctx, pool, cfg, os.Args[2:])
	case "migrate":
		err = pg.Migrate(ctx, pool, cfg.Postgres, log)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

func createUser(ctx context.Context, pool *pgxpool.Pool, args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)
	username := fs.String("username", "", "login name (required)")
	email := fs.String("email", "", "contact email")
	admin := fs.Bool("admin", false, "grant admin rights")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		return fmt.Errorf("create-user: -username is required")
	}

	password, err := randomPassword()
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user, err := users.NewRepository(pool).Create(ctx, *username, hash, *email, *admin)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return fmt.Errorf("create-user: username %q already exists", *username)
		}
		return fmt.Errorf("create-user: %w", err)
	}

	fmt.Printf("created user %d (%s)\n", user.ID, user.Username)
	fmt.Printf("password: %s\n", password)
	return nil
}

func changePassword(ctx context.Context, pool *pgxpool.Pool, args []string) error {
	fs := flag.NewFlagSet("change-password", flag.ExitOnError)
	username := fs.String("username", "", "login name (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		return fmt.Errorf("change-password: -username is required")
	}

	repo := users.NewRepository(pool)
	user, err := repo.GetByUsername(ctx, *username)
	if err != nil {
		return fmt.Errorf("change-password: %w", err)
	}
	if user == nil {
		return fmt.Errorf("change-password: user %q not found", *username)
	}

	password, err := randomPassword()
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := repo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("change-password: %w", err)
	}

	fmt.Printf("new password for %s: %s\n", user.Username, password)
	return nil
}

func createToken(ctx context.Context, pool *pgxpool.Pool, cfg manageConfig, args []string) error {
	fs := flag.NewFlagSet("create-token", flag.ExitOnError)
	username := fs.String("username", "", "token owner (required)")
	name := fs.String("name", "", "token label (required)")
	ttl := fs.Duration("ttl", 0, "token lifetime; 0 means no expiry")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" || *name == "" {
		return fmt.Errorf("create-token: -username and -name are required")
	}
	if cfg.TokenSecret == "" {
		return fmt.Errorf("create-token: TOKEN_SECRET is not set")
	}

	user, err := users.NewRepository(pool).GetByUsername(ctx, *username)
	if err != nil {
		return fmt.Errorf("create-token: %w", err)
	}
	if user == nil {
		return fmt.Errorf("create-token: user %q not found", *username)
	}

	jwtSvc, err := jwt.NewFromString(cfg.TokenSecret, cfg.TokenAlgorithm)
	if err != nil {
		return fmt.Errorf("init signing service: %w", err)
	}
	codec, err := apitoken.NewCodec(jwtSvc)
	if err != nil {
		return fmt.Errorf("init token codec: %w", err)
	}

	var expiresAt *time.Time
	if *ttl > 0 {
		t := time.Now().UTC().Add(*ttl)
		expiresAt = &t
	}

	svc := tokens.NewService(tokens.NewRepository(pool), apitoken.NewIssuer(codec), slog.Default())
	token, bearer, err := svc.CreateToken(ctx, user.ID, *name, expiresAt)
	if err != nil {
		return fmt.Errorf("create-token: %w", err)
	}

	fmt.Printf("created token %d (%s)\n", token.ID, token.Name)
	fmt.Println("this value is shown once, store it now:")
	fmt.Println(bearer)
	return nil
}

func randomPassword() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate password: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
