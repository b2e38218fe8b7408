// Command admin creates an ADMIN user, or promotes an existing account.
// Intended for bootstrapping the first administrator:
//
//	admin -config configs/config.yaml -email root@example.com -password secret
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/your-org/familytree/internal/auth"
	"github.com/your-org/familytree/internal/config"
	"github.com/your-org/familytree/internal/models"
	"github.com/your-org/familytree/internal/observability"
	"github.com/your-org/familytree/internal/storage"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	email := flag.String("email", "", "admin email address")
	password := flag.String("password", "", "admin password (min 8 characters)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	observability.SetupLogger(cfg.Logging.Level, "text")

	if err := run(cfg, *email, *password); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, email, password string) error {
	if email == "" {
		return fmt.Errorf("-email is required")
	}

	db, err := storage.NewPostgresStore(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()

	existing, err := db.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}

	if existing != nil {
		if existing.Role == models.RoleAdmin {
			fmt.Printf("user %s is already an admin\n", email)
			return nil
		}
		if _, err := db.UpdateUserRole(ctx, existing.ID, models.RoleAdmin); err != nil {
			return err
		}
		fmt.Printf("user %s promoted to ADMIN\n", email)
		return nil
	}

	if len(password) < 8 {
		return fmt.Errorf("-password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(password, cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}

	user, err := db.CreateUser(ctx, email, hash, models.RoleAdmin)
	if err != nil {
		return err
	}

	fmt.Printf("admin user created: %s (%s)\n", user.Email, user.ID)
	return nil
}
