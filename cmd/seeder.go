package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if clearData {
			tables := []string{
				"registration_tokens", "access_requests", "project_stakeholders",
				"contacts", "projects", "clients", "users",
			}
			for _, t := range tables {
				if err := db.Exec("DELETE FROM " + t).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", t, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		adminEmail := "admin@rfisys.local"
		var exists int
		if err := db.Raw("SELECT 1 FROM users WHERE email = ?", adminEmail).Row().Scan(&exists); err != nil {
			if err := db.Exec("INSERT INTO users (email, name, password_hash, role, active, created_at, updated_at) VALUES (?, ?, ?, 'ADMIN', true, now(), now())",
				adminEmail, "Site Admin", string(hash)).Error; err != nil {
				log.Fatalf("failed to insert admin user: %v", err)
			}
			fmt.Println("Seeded admin user:", adminEmail)
		}

		pmEmail := "pm@rfisys.local"
		if err := db.Raw("SELECT 1 FROM users WHERE email = ?", pmEmail).Row().Scan(&exists); err != nil {
			if err := db.Exec("INSERT INTO users (email, name, password_hash, role, active, created_at, updated_at) VALUES (?, ?, ?, 'USER', true, now(), now())",
				pmEmail, "Project Manager", string(hash)).Error; err != nil {
				log.Fatalf("failed to insert pm user: %v", err)
			}
			fmt.Println("Seeded project manager:", pmEmail)
		}

		clientName := "Acme Construction"
		var clientID int64
		if err := db.Raw("SELECT id FROM clients WHERE name = ?", clientName).Row().Scan(&clientID); err != nil {
			if err := db.Exec("INSERT INTO clients (name, active, created_at, updated_at) VALUES (?, true, now(), now())", clientName).Error; err != nil {
				log.Fatalf("failed to insert client: %v", err)
			}
			if err := db.Raw("SELECT id FROM clients WHERE name = ?", clientName).Row().Scan(&clientID); err != nil {
				log.Fatalf("failed to look up client id: %v", err)
			}
			fmt.Println("Seeded client:", clientName)
		}

		projectName := "North Tower"
		var projectID int64
		if err := db.Raw("SELECT id FROM projects WHERE name = ?", projectName).Row().Scan(&projectID); err != nil {
			if err := db.Exec("INSERT INTO projects (client_id, name, number, active, created_at, updated_at) VALUES (?, ?, 'P-1001', true, now(), now())",
				clientID, projectName).Error; err != nil {
				log.Fatalf("failed to insert project: %v", err)
			}
			if err := db.Raw("SELECT id FROM projects WHERE name = ?", projectName).Row().Scan(&projectID); err != nil {
				log.Fatalf("failed to look up project id: %v", err)
			}
			fmt.Println("Seeded project:", projectName)
		}

		contactEmail := "foreman@acme.example"
		var contactID int64
		if err := db.Raw("SELECT id FROM contacts WHERE email = ?", contactEmail).Row().Scan(&contactID); err != nil {
			if err := db.Exec("INSERT INTO contacts (client_id, name, email, phone, active, created_at, updated_at) VALUES (?, ?, ?, '555-0100', true, now(), now())",
				clientID, "Site Foreman", contactEmail).Error; err != nil {
				log.Fatalf("failed to insert contact: %v", err)
			}
			if err := db.Raw("SELECT id FROM contacts WHERE email = ?", contactEmail).Row().Scan(&contactID); err != nil {
				log.Fatalf("failed to look up contact id: %v", err)
			}
			fmt.Println("Seeded contact:", contactEmail)
		}

		if err := db.Raw("SELECT 1 FROM project_stakeholders WHERE project_id = ? AND contact_id = ?", projectID, contactID).Row().Scan(&exists); err != nil {
			var adminID int64
			if err := db.Raw("SELECT id FROM users WHERE email = ?", adminEmail).Row().Scan(&adminID); err != nil {
				log.Fatalf("failed to look up admin id: %v", err)
			}
			if err := db.Exec("INSERT INTO project_stakeholders (project_id, contact_id, stakeholder_level, added_by_user_id, auto_approved, created_at) VALUES (?, ?, 1, ?, false, now())",
				projectID, contactID, adminID).Error; err != nil {
				log.Fatalf("failed to insert stakeholder grant: %v", err)
			}
			fmt.Println("Seeded stakeholder grant for contact:", contactEmail)
		}

		fmt.Println("Seeding complete")
	},
}
