// Command create-admin provisions an administrator account directly against the database.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"os"
	"time"

	"checkinflow/config"
	"checkinflow/internal/adapters/auth"
	"checkinflow/internal/domain"
	"checkinflow/internal/repository/postgres"
	"checkinflow/internal/services"

	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	username := flag.String("username", "admin", "Administrator username")
	password := flag.String("password", "", "Administrator password (at least 8 characters)")
	role := flag.String("role", string(domain.RoleSystemAdmin), "Role: system_admin, admin or member")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		config.NewLogger().Error("config load failed", "err", err)
		os.Exit(1)
	}
	logger := config.NewLogger()
	if *password == "" {
		logger.Error("-password is required")
		os.Exit(2)
	}

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("db open failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := postgres.Migrate(db); err != nil {
		logger.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	svc := services.NewAdminService(
		postgres.NewAdminRepository(db),
		auth.NewBcryptHasher(bcrypt.DefaultCost),
		auth.NewJWTIssuer(cfg.JWTSecret),
		cfg.JWTExpiry,
		false,
		30*time.Second,
	)
	// The operator acts as a system admin for provisioning.
	operator := domain.Principal{Role: domain.RoleSystemAdmin}
	admin, err := svc.Create(context.Background(), operator, *username, *password, domain.Role(*role))
	switch {
	case errors.Is(err, domain.ErrDuplicate):
		logger.Warn("administrator already exists", "username", *username)
	case err != nil:
		logger.Error("create administrator failed", "err", err)
		os.Exit(1)
	default:
		logger.Info("administrator created", "id", admin.ID, "username", admin.Username, "role", admin.Role)
	}
}
