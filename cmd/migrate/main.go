package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	if len(os.Args) < 2 {
		fmt.Println("Usage: go run main.go [up|drop]")
		os.Exit(1)
	}

	command := os.Args[1]

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close(ctx)

	switch command {
	case "up":
		if err := createTables(ctx, conn); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
		fmt.Println("Settlement archive tables created")

	case "drop":
		if err := dropTables(ctx, conn); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		fmt.Println("Settlement archive tables dropped")

	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}

func createTables(ctx context.Context, conn *pgx.Conn) error {
	_, err := conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS settlements (
			id BIGSERIAL PRIMARY KEY,
			contest_id TEXT NOT NULL,
			entry_id TEXT NOT NULL,
			author_id TEXT NOT NULL,
			rank INTEGER NOT NULL,
			votes BIGINT NOT NULL,
			top_text TEXT NOT NULL DEFAULT '',
			middle_text TEXT NOT NULL DEFAULT '',
			bottom_text TEXT NOT NULL DEFAULT '',
			bold BOOLEAN NOT NULL DEFAULT FALSE,
			all_caps BOOLEAN NOT NULL DEFAULT FALSE,
			post_ref TEXT NOT NULL DEFAULT '',
			settled_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_settlements_contest_id ON settlements (contest_id);
		CREATE INDEX IF NOT EXISTS idx_settlements_settled_at ON settlements (settled_at);
	`)
	return err
}

func dropTables(ctx context.Context, conn *pgx.Conn) error {
	_, err := conn.Exec(ctx, `DROP TABLE IF EXISTS settlements`)
	return err
}
