package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/shopsphere/accounts/pkg/helpers"

	"github.com/shopsphere/accounts/config"
)

// Seeds the bootstrap administrator account. Without one, no admin portal
// login is possible and no further admins can be created.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	email := getenv("SEED_ADMIN_EMAIL", "admin@example.com")
	password := getenv("SEED_ADMIN_PASSWORD", "changeme123")
	name := getenv("SEED_ADMIN_NAME", "Administrator")

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var id string
	err = db.QueryRow(`
		INSERT INTO accounts (email, password_hash, name, role, is_verified, is_active)
		VALUES ($1, $2, $3, 'admin', true, true)
		ON CONFLICT (email) DO UPDATE SET role = 'admin', is_active = true
		RETURNING id
	`, email, hash, name).Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
	fmt.Printf("seeded admin: id=%s email=%s\n", id, email)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
