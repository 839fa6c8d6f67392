// Command migrate applies pending SQL migrations to the dispatch
// database using golang-migrate, reading connection parameters from the
// same BLUEPRINT_DB_* environment variables internal/database uses.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

func main() {
	down := flag.Bool("down", false, "roll back one migration instead of applying pending ones")
	steps := flag.Int("steps", 0, "apply/roll back exactly N migrations (0 means all pending)")
	flag.Parse()

	dbHost := os.Getenv("BLUEPRINT_DB_HOST")
	dbPort := os.Getenv("BLUEPRINT_DB_PORT")
	dbUser := os.Getenv("BLUEPRINT_DB_USERNAME")
	dbPass := os.Getenv("BLUEPRINT_DB_PASSWORD")
	dbName := os.Getenv("BLUEPRINT_DB_DATABASE")

	if dbHost == "" || dbPort == "" || dbUser == "" || dbPass == "" || dbName == "" {
		log.Fatal("Missing database environment variables")
	}

	connString := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		dbUser, dbPass, dbHost, dbPort, dbName)

	m, err := migrate.New("file://internal/database/migrations", connString)
	if err != nil {
		log.Fatalf("Failed to initialize migrator: %v", err)
	}
	defer m.Close()

	switch {
	case *down && *steps == 0:
		err = m.Steps(-1)
	case *steps != 0:
		if *down {
			*steps = -*steps
		}
		err = m.Steps(*steps)
	default:
		err = m.Up()
	}

	if err != nil && err != migrate.ErrNoChange {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migrations applied successfully")
}
