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
		fmt.Println("Usage: go run ./cmd/migrate [up|drop|status]")
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
		fmt.Println("✅ Registration ledger created successfully")

	case "drop":
		if err := dropTables(ctx, conn); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		fmt.Println("✅ Registration ledger dropped successfully")

	case "status":
		if err := printStatus(ctx, conn); err != nil {
			log.Fatalf("Failed to read ledger status: %v", err)
		}

	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}

func createTables(ctx context.Context, conn *pgx.Conn) error {
	query := `
		CREATE TABLE IF NOT EXISTS hackathon_registrations (
			id BIGSERIAL PRIMARY KEY,
			hackathon_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			user_email TEXT NOT NULL DEFAULT '',
			user_name TEXT NOT NULL DEFAULT '',
			registered_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT hackathon_registrations_unique_user UNIQUE (hackathon_id, user_id)
		);

		CREATE INDEX IF NOT EXISTS idx_hackathon_registrations_hackathon
			ON hackathon_registrations (hackathon_id);
	`
	_, err := conn.Exec(ctx, query)
	return err
}

func dropTables(ctx context.Context, conn *pgx.Conn) error {
	_, err := conn.Exec(ctx, `DROP TABLE IF EXISTS hackathon_registrations CASCADE`)
	return err
}

func printStatus(ctx context.Context, conn *pgx.Conn) error {
	rows, err := conn.Query(ctx, `
		SELECT hackathon_id, COUNT(*)
		FROM hackathon_registrations
		GROUP BY hackathon_id
		ORDER BY hackathon_id
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	total := 0
	for rows.Next() {
		var id string
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return err
		}
		fmt.Printf("%-40s %d\n", id, count)
		total++
	}
	if err := rows.Err(); err != nil {
		return err
	}
	fmt.Printf("%d hackathon(s) with registrations\n", total)
	return nil
}
