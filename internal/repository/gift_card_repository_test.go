package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/giftvault/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupGiftCardRepositoryTest(t *testing.T) (*GormGiftCardRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:gift_card_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.GiftCard{},
		&models.GiftCardUsage{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewGiftCardRepository(db), db
}

func seedGiftCard(t *testing.T, db *gorm.DB, card models.GiftCard) models.GiftCard {
	t.Helper()
	if card.Currency == "" {
		card.Currency = "USD"
	}
	if card.RemainingAmount == 0 {
		card.RemainingAmount = card.FaceAmount
	}
	if err := db.Create(&card).Error; err != nil {
		t.Fatalf("create gift card failed: %v", err)
	}
	return card
}

func TestGiftCardRepositoryList(t *testing.T) {
	repo, db := setupGiftCardRepositoryTest(t)
	now := time.Now().UTC().Truncate(time.Second)

	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	active := seedGiftCard(t, db, models.GiftCard{
		Code:           "AB-1111-2222",
		TokenHash:      "hash-active",
		FaceAmount:     models.Money(5000),
		Status:         models.GiftCardStatusActive,
		PurchaserEmail: "buyer_alpha@example.com",
		RecipientEmail: "recipient_alpha@example.com",
		ExpiresAt:      &future,
	})
	stale := seedGiftCard(t, db, models.GiftCard{
		Code:           "CD-3333-4444",
		TokenHash:      "hash-stale",
		FaceAmount:     models.Money(3000),
		Status:         models.GiftCardStatusActive,
		PurchaserEmail: "buyer_beta@example.com",
		RecipientEmail: "recipient_beta@example.com",
		ExpiresAt:      &past,
	})
	cancelled := seedGiftCard(t, db, models.GiftCard{
		Code:           "EF-5555-6666",
		TokenHash:      "hash-cancelled",
		FaceAmount:     models.Money(2000),
		Status:         models.GiftCardStatusCancelled,
		PurchaserEmail: "buyer_alpha@example.com",
		RecipientEmail: "recipient_gamma@example.com",
		ExpiresAt:      &future,
	})

	t.Run("filter by code fragment", func(t *testing.T) {
		rows, total, err := repo.List(GiftCardListFilter{Page: 1, PageSize: 20, Code: "cd-3333"})
		if err != nil {
			t.Fatalf("list by code failed: %v", err)
		}
		if total != 1 || len(rows) != 1 || rows[0].ID != stale.ID {
			t.Fatalf("unexpected code listing: total=%d rows=%+v", total, rows)
		}
	})

	t.Run("active filter excludes past expiry", func(t *testing.T) {
		rows, total, err := repo.List(GiftCardListFilter{Page: 1, PageSize: 20, Status: models.GiftCardStatusActive})
		if err != nil {
			t.Fatalf("list active failed: %v", err)
		}
		if total != 1 || len(rows) != 1 || rows[0].ID != active.ID {
			t.Fatalf("unexpected active listing: total=%d rows=%+v", total, rows)
		}
	})

	t.Run("expired filter includes unlanded past expiry", func(t *testing.T) {
		rows, total, err := repo.List(GiftCardListFilter{Page: 1, PageSize: 20, Status: models.GiftCardStatusExpired})
		if err != nil {
			t.Fatalf("list expired failed: %v", err)
		}
		if total != 1 || len(rows) != 1 || rows[0].ID != stale.ID {
			t.Fatalf("unexpected expired listing: total=%d rows=%+v", total, rows)
		}
	})

	t.Run("filter by purchaser email", func(t *testing.T) {
		rows, total, err := repo.List(GiftCardListFilter{Page: 1, PageSize: 20, PurchaserEmail: "buyer_alpha"})
		if err != nil {
			t.Fatalf("list by purchaser failed: %v", err)
		}
		if total != 2 {
			t.Fatalf("total want 2 got %d", total)
		}
		for _, row := range rows {
			if row.ID != active.ID && row.ID != cancelled.ID {
				t.Fatalf("unexpected row in purchaser listing: %+v", row)
			}
		}
	})
}

func TestGiftCardRepositoryGetByCodeNormalizes(t *testing.T) {
	repo, db := setupGiftCardRepositoryTest(t)
	future := time.Now().Add(24 * time.Hour)
	card := seedGiftCard(t, db, models.GiftCard{
		Code:           "GH-7777-8888",
		TokenHash:      "hash-code-lookup",
		FaceAmount:     models.Money(1000),
		Status:         models.GiftCardStatusActive,
		RecipientEmail: "recipient@example.com",
		ExpiresAt:      &future,
	})

	found, err := repo.GetByCode("  gh-7777-8888  ")
	if err != nil {
		t.Fatalf("get by code failed: %v", err)
	}
	if found == nil || found.ID != card.ID {
		t.Fatalf("expected card %d, got: %+v", card.ID, found)
	}

	missing, err := repo.GetByCode("ZZ-0000-0000")
	if err != nil {
		t.Fatalf("get missing code failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown code, got: %+v", missing)
	}
}

func TestGiftCardRepositoryExpireDue(t *testing.T) {
	repo, db := setupGiftCardRepositoryTest(t)
	now := time.Now().UTC().Truncate(time.Second)
	past := now.Add(-1 * time.Hour)
	future := now.Add(24 * time.Hour)

	due := seedGiftCard(t, db, models.GiftCard{
		Code:           "IJ-0001-0001",
		TokenHash:      "hash-due",
		FaceAmount:     models.Money(5000),
		Status:         models.GiftCardStatusActive,
		RecipientEmail: "due@example.com",
		ExpiresAt:      &past,
	})
	partial := seedGiftCard(t, db, models.GiftCard{
		Code:            "KL-0002-0002",
		TokenHash:       "hash-partial",
		FaceAmount:      models.Money(5000),
		RemainingAmount: models.Money(2000),
		Status:          models.GiftCardStatusPartiallyUsed,
		RecipientEmail:  "partial@example.com",
		ExpiresAt:       &past,
	})
	fresh := seedGiftCard(t, db, models.GiftCard{
		Code:           "MN-0003-0003",
		TokenHash:      "hash-fresh",
		FaceAmount:     models.Money(5000),
		Status:         models.GiftCardStatusActive,
		RecipientEmail: "fresh@example.com",
		ExpiresAt:      &future,
	})
	terminal := seedGiftCard(t, db, models.GiftCard{
		Code:           "OP-0004-0004",
		TokenHash:      "hash-terminal",
		FaceAmount:     models.Money(5000),
		Status:         models.GiftCardStatusCancelled,
		RecipientEmail: "terminal@example.com",
		ExpiresAt:      &past,
	})

	affected, err := repo.ExpireDue(now)
	if err != nil {
		t.Fatalf("expire due failed: %v", err)
	}
	if affected != 2 {
		t.Fatalf("affected want 2 got %d", affected)
	}

	checks := []struct {
		id   uint
		want string
	}{
		{due.ID, models.GiftCardStatusExpired},
		{partial.ID, models.GiftCardStatusExpired},
		{fresh.ID, models.GiftCardStatusActive},
		{terminal.ID, models.GiftCardStatusCancelled},
	}
	for _, check := range checks {
		var stored models.GiftCard
		if err := db.First(&stored, check.id).Error; err != nil {
			t.Fatalf("query card %d failed: %v", check.id, err)
		}
		if stored.Status != check.want {
			t.Fatalf("card %d status want %s got %s", check.id, check.want, stored.Status)
		}
	}
}

func TestGiftCardRepositoryListUsages(t *testing.T) {
	repo, db := setupGiftCardRepositoryTest(t)
	future := time.Now().Add(24 * time.Hour)
	card := seedGiftCard(t, db, models.GiftCard{
		Code:           "QR-0005-0005",
		TokenHash:      "hash-usages",
		FaceAmount:     models.Money(9000),
		Status:         models.GiftCardStatusActive,
		RecipientEmail: "usages@example.com",
		ExpiresAt:      &future,
	})
	other := seedGiftCard(t, db, models.GiftCard{
		Code:           "ST-0006-0006",
		TokenHash:      "hash-other",
		FaceAmount:     models.Money(1000),
		Status:         models.GiftCardStatusActive,
		RecipientEmail: "other@example.com",
		ExpiresAt:      &future,
	})

	usages := []models.GiftCardUsage{
		{GiftCardID: card.ID, Amount: models.Money(2000), RemainingAfter: models.Money(7000), ServiceName: "剪发"},
		{GiftCardID: card.ID, Amount: models.Money(3000), RemainingAfter: models.Money(4000), ServiceName: "染发"},
		{GiftCardID: other.ID, Amount: models.Money(500), RemainingAfter: models.Money(500)},
	}
	for i := range usages {
		if err := repo.CreateUsage(&usages[i]); err != nil {
			t.Fatalf("create usage failed: %v", err)
		}
	}

	rows, total, err := repo.ListUsages(GiftCardUsageListFilter{Page: 1, PageSize: 20, GiftCardID: card.ID})
	if err != nil {
		t.Fatalf("list usages failed: %v", err)
	}
	if total != 2 || len(rows) != 2 {
		t.Fatalf("usage listing want 2 got total=%d len=%d", total, len(rows))
	}
	for _, row := range rows {
		if row.GiftCardID != card.ID {
			t.Fatalf("unexpected usage row: %+v", row)
		}
	}
}
