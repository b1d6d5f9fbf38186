// Command migrate applies database schema migrations.
package main

import (
	"flag"
	"log"

	"github.com/voicedesk/voicedesk/internal/config"
	"github.com/voicedesk/voicedesk/internal/database"
)

func main() {
	path := flag.String("path", "migrations", "directory containing migration files")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := database.MigrateUp(db, *path); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migrations applied")
}
