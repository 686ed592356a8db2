package main

import (
	"log"
	"os"

	"legal-assist-be/internal/model"
	"legal-assist-be/pkg/database"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

func main() {
	// Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	color.Cyan("Seeding Plan Catalog...")

	plans := []model.Plan{
		{
			Slug:        "pay-per-letter",
			Name:        "Pay Per Letter",
			Description: "One-off purchase of a single legal letter draft",
			AmountCents: 500,
			Currency:    "usd",
			Interval:    "one_time",
			CaseLimit:   1,
			IsActive:    true,
			SortOrder:   1,
		},
		{
			Slug:        "pro",
			Name:        "Pro",
			Description: "Monthly subscription for individuals with ongoing legal matters",
			AmountCents: 1500,
			Currency:    "usd",
			Interval:    "monthly",
			CaseLimit:   -1,
			IsActive:    true,
			SortOrder:   2,
		},
		{
			Slug:        "business",
			Name:        "Business",
			Description: "Monthly subscription for small businesses with priority support",
			AmountCents: 3900,
			Currency:    "usd",
			Interval:    "monthly",
			CaseLimit:   -1,
			IsActive:    true,
			SortOrder:   3,
		},
	}

	for _, p := range plans {
		var existing model.Plan
		if err := db.Where("slug = ?", p.Slug).First(&existing).Error; err == nil {
			color.Yellow("Plan '%s' already exists, skipping...", p.Slug)
			continue
		}

		if err := db.Create(&p).Error; err != nil {
			color.Red("Error creating plan '%s': %v", p.Slug, err)
		} else {
			color.Green("Created plan: %s (%s)", p.Name, p.Slug)
		}
	}

	color.Cyan("Plan seeding completed!")
}
