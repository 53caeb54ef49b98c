package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Migration must work on sqlite too, since every package's tests run against
// an in-memory database. Column defaults that only Postgres understands break
// CREATE TABLE there.
func TestAutoMigrateOnSQLite(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate failed: %v", err)
	}

	item := &SourceItem{
		ID:         uuid.New(),
		ExternalID: "t3_migrate",
		Channel:    "smallbusiness",
		Title:      "migration smoke check",
		PostedAt:   time.Now().UTC(),
		Status:     StatusUnprocessed,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("failed to insert into migrated schema: %v", err)
	}

	var got SourceItem
	if err := db.First(&got, "id = ?", item.ID).Error; err != nil {
		t.Fatalf("failed to read back inserted row: %v", err)
	}
	if got.ExternalID != "t3_migrate" {
		t.Errorf("external id = %q, want t3_migrate", got.ExternalID)
	}
}
