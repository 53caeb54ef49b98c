package dedup

import (
	"testing"
	"time"

	"demand-scout/internal/models"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.SourceItem{},
		&models.Opportunity{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

func TestRecentItemsWindow(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now().UTC()

	items := []models.SourceItem{
		{ID: uuid.New(), ExternalID: "t3_recent", Channel: "smallbusiness", Title: "recent", PostedAt: now.AddDate(0, 0, -5)},
		{ID: uuid.New(), ExternalID: "t3_ancient", Channel: "smallbusiness", Title: "ancient", PostedAt: now.AddDate(0, 0, -90)},
		{ID: uuid.New(), ExternalID: "t3_other", Channel: "SaaS", Title: "other channel", PostedAt: now.AddDate(0, 0, -1)},
	}
	for i := range items {
		if err := db.Create(&items[i]).Error; err != nil {
			t.Fatalf("failed to seed item: %v", err)
		}
	}

	windows := NewWindows(db)

	history, err := windows.RecentItems("smallbusiness", "t3_new", now)
	if err != nil {
		t.Fatalf("RecentItems failed: %v", err)
	}
	if len(history) != 1 || history[0].ExternalID != "t3_recent" {
		t.Errorf("window = %v, want only the recent same-channel item", history)
	}
}

func TestRecentItemsIncludesExactIDOutsideWindow(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now().UTC()

	old := models.SourceItem{
		ID: uuid.New(), ExternalID: "t3_ancient", Channel: "smallbusiness",
		Title: "ancient", PostedAt: now.AddDate(0, 0, -90),
	}
	if err := db.Create(&old).Error; err != nil {
		t.Fatalf("failed to seed item: %v", err)
	}

	windows := NewWindows(db)

	// the exact-id row rides along even though it is far older than the
	// lookback, so a redelivered old post still hits the exact-id check
	history, err := windows.RecentItems("smallbusiness", "t3_ancient", now)
	if err != nil {
		t.Fatalf("RecentItems failed: %v", err)
	}
	if len(history) != 1 || history[0].ExternalID != "t3_ancient" {
		t.Errorf("window = %v, want the exact-id row despite its age", history)
	}
}

func TestRecentOpportunitiesScopedToNiche(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now().UTC()

	opps := []models.Opportunity{
		{ID: uuid.New(), Title: "Invoice chaser", Niche: "freelance-finance"},
		{ID: uuid.New(), Title: "Inventory forecaster", Niche: "retail"},
	}
	for i := range opps {
		if err := db.Create(&opps[i]).Error; err != nil {
			t.Fatalf("failed to seed opportunity: %v", err)
		}
	}

	windows := NewWindows(db)

	history, err := windows.RecentOpportunities("freelance-finance", "anything", now)
	if err != nil {
		t.Fatalf("RecentOpportunities failed: %v", err)
	}
	if len(history) != 1 || history[0].Title != "Invoice chaser" {
		t.Errorf("window = %v, want only the same-niche opportunity", history)
	}
}
