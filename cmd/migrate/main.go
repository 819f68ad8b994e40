package main

import (
	"log"
	"os"

	"prd-builder-be/internal/model"
	"prd-builder-be/pkg/database"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

func main() {
	step := color.New(color.FgCyan, color.Bold)
	ok := color.New(color.FgGreen)
	warn := color.New(color.FgYellow)

	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn, true)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	// 2. Extensions
	step.Println("Step 1: Setting up extensions...")
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		warn.Printf("Warn: Failed to create pgcrypto: %v. Continuing...\n", err)
	}

	// 3. Tables
	step.Println("Step 2: Running AutoMigrate...")
	if err := db.AutoMigrate(&model.PrdDocument{}); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 4. Constraints & triggers
	step.Println("Step 3: Creating constraints and triggers...")

	postMigrationSQL := []string{
		`ALTER TABLE prd_documents ALTER COLUMN id SET DEFAULT gen_random_uuid();`,

		`DO $$ BEGIN
		   IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'prd_documents_updated_after_created') THEN
		     ALTER TABLE prd_documents ADD CONSTRAINT prd_documents_updated_after_created CHECK (updated_at >= created_at);
		   END IF;
		 END $$;`,

		// updated_at only ever moves forward, even when writers disagree on the clock.
		`CREATE OR REPLACE FUNCTION prd_documents_advance_updated_at() RETURNS trigger LANGUAGE plpgsql AS $$
		BEGIN
		  IF NEW.updated_at IS NULL OR NEW.updated_at <= OLD.updated_at THEN
		    NEW.updated_at := OLD.updated_at + interval '1 microsecond';
		  END IF;
		  NEW.created_at := OLD.created_at;
		  NEW.user_id := OLD.user_id;
		  RETURN NEW;
		END; $$;`,

		`DROP TRIGGER IF EXISTS prd_documents_advance_updated_at ON prd_documents;`,
		`CREATE TRIGGER prd_documents_advance_updated_at BEFORE UPDATE ON prd_documents
		 FOR EACH ROW EXECUTE FUNCTION prd_documents_advance_updated_at();`,
	}

	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Fatalf("Error: Failed to execute post-migration SQL: %v", err)
		}
	}

	ok.Println("Migration completed successfully")
}
