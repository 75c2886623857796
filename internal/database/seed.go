package database

import (
	"log"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// SeedVehicles loads the initial fleet catalog. Labels are exactly what the
// workers see on the vehicle keyboard.
func SeedVehicles(db *sqlx.DB) error {
	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM vehicles"); err != nil {
		return err
	}
	if count > 0 {
		log.Println("✓ Vehicles already seeded, skipping...")
		return nil
	}

	log.Println("🌱 Seeding fleet catalog...")

	labels := []string{
		"Peugeot Expert(большой), 2FVK026",
		"Peugeot Partner(маленький), 2GJD511",
		"Renault Trafic(белый), 1XCZ308",
		"Citroen Jumpy(серый), 2DKT664",
	}

	for i, label := range labels {
		_, err := db.Exec(
			`INSERT INTO vehicles (label, position) VALUES ($1, $2)`,
			label, i,
		)
		if err != nil {
			return err
		}
	}

	log.Printf("✓ Successfully seeded %d vehicles", len(labels))
	return nil
}

// SeedUsers creates the default dashboard accounts on an empty database.
func SeedUsers(db *sqlx.DB) error {
	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM users"); err != nil {
		return err
	}
	if count > 0 {
		log.Println("✓ Users already seeded, skipping...")
		return nil
	}

	log.Println("🌱 Seeding dashboard users...")

	managerPassword, err := bcrypt.GenerateFromPassword([]byte("manager123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	adminPassword, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	users := []map[string]interface{}{
		{
			"id":       uuid.New().String(),
			"email":    "manager@shiftbot.local",
			"password": string(managerPassword),
			"name":     "Shift Manager",
			"role":     "manager",
		},
		{
			"id":       uuid.New().String(),
			"email":    "admin@shiftbot.local",
			"password": string(adminPassword),
			"name":     "Admin User",
			"role":     "admin",
		},
	}

	for _, user := range users {
		query := `
			INSERT INTO users (id, email, password, name, role)
			VALUES (:id, :email, :password, :name, :role)
		`
		if _, err := db.NamedExec(query, user); err != nil {
			return err
		}
		log.Printf("  ✓ Created user: %s (%s)", user["email"], user["role"])
	}

	log.Println("✓ Successfully seeded dashboard users")
	return nil
}
