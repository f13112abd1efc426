package helpers

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/andrescamacho/skamkraft-go/internal/adapters/persistence"
	"github.com/andrescamacho/skamkraft-go/internal/infrastructure/database"
)

// NewTestDB opens a migrated sqlite :memory: database closed with the test
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.NewTestConnection()
	require.NoError(t, err, "failed to create test database")
	t.Cleanup(func() {
		_ = database.Close(db)
	})
	return db
}

// NewTestStore returns a durable key-value store on a fresh test database
func NewTestStore(t *testing.T) *persistence.GormKeyValueStore {
	t.Helper()
	return persistence.NewGormKeyValueStore(NewTestDB(t))
}
