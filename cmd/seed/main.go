package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/uniscout/identity-engine/config"
	"github.com/uniscout/identity-engine/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	email := "demo@uniscout.app"
	password := "password123"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var id string
	err = db.QueryRow(`
		INSERT INTO users (email, password_hash, provider)
		VALUES ($1, $2, 'email')
		ON CONFLICT (email) DO UPDATE SET updated_at = now()
		RETURNING id
	`, email, hash).Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}
	fmt.Printf("seeded user: id=%s email=%s password=%s\n", id, email, password)

	if _, err := db.Exec(`
		INSERT INTO profiles (
			id, email, display_name, city, country,
			favorite_universities, recently_viewed, provider, login_count
		)
		VALUES ($1, $2, 'Demo User', 'Lahore', 'Pakistan',
		        ARRAY['lums', 'nust'], '[]', 'email', 1)
		ON CONFLICT (id) DO UPDATE SET updated_at = now()
	`, id, email); err != nil {
		log.Fatalf("failed to seed profile: %v", err)
	}
	fmt.Println("seeded demo profile")
}
