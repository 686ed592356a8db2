package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"legal-assist-be/internal/repository/unitofwork"
	"legal-assist-be/pkg/database"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.UserRepository())
	assert.NotNil(t, uow.SubscriptionRepository())
	assert.NotNil(t, uow.CaseRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	// Verify Data Access (implies columns exist)
	t.Run("Check User Repository", func(t *testing.T) {
		count, err := uow.UserRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("User count: %d", count)
	})

	t.Run("Check Case Repository", func(t *testing.T) {
		count, err := uow.CaseRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Case count: %d", count)
	})

	t.Run("Check Plan Catalog", func(t *testing.T) {
		plans, err := uow.SubscriptionRepository().FindAllPlans(context.Background())
		assert.NoError(t, err)
		t.Logf("Plan count: %d", len(plans))
	})
}
