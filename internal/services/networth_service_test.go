package services

import (
	"testing"

	"homebudget/internal/pagination"
	"homebudget/internal/testutil"
)

func TestCreateSnapshot(t *testing.T) {
	t.Run("derives_net_worth", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewNetWorthService(db)
		user := testutil.CreateTestUser(t, db)

		snapshot, err := svc.CreateSnapshot(user.ID, date(2025, 1, 31), 500000, 120000, "")
		testutil.AssertNoError(t, err)

		if snapshot.NetWorth != 380000 {
			t.Errorf("expected net worth 380000, got %d", snapshot.NetWorth)
		}
	})

	t.Run("rejects_negative_totals", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewNetWorthService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateSnapshot(user.ID, date(2025, 1, 31), -100, 0, "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetSnapshots(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewNetWorthService(db)
	user := testutil.CreateTestUser(t, db)

	_, err := svc.CreateSnapshot(user.ID, date(2025, 1, 31), 100000, 0, "")
	testutil.AssertNoError(t, err)
	_, err = svc.CreateSnapshot(user.ID, date(2025, 2, 28), 110000, 0, "")
	testutil.AssertNoError(t, err)

	page := pagination.PageRequest{Page: 1, PageSize: 20}
	result, err := svc.GetSnapshots(user.ID, page)
	testutil.AssertNoError(t, err)

	if result.TotalItems != 2 {
		t.Fatalf("expected 2 snapshots, got %d", result.TotalItems)
	}
	if !result.Data[0].SnapshotDate.After(result.Data[1].SnapshotDate) {
		t.Error("expected snapshots ordered newest first")
	}
}

func TestCurrentNetWorth(t *testing.T) {
	t.Run("splits_assets_and_liabilities", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewNetWorthService(db)
		user := testutil.CreateTestUser(t, db)

		testutil.CreateTestAccountWithBalance(t, db, user.ID, 300000)
		testutil.CreateTestCreditCardAccount(t, db, user.ID, -45000)

		current, err := svc.Current(user.ID)
		testutil.AssertNoError(t, err)

		if current.TotalAssets != 300000 {
			t.Errorf("expected assets 300000, got %d", current.TotalAssets)
		}
		if current.TotalLiabilities != 45000 {
			t.Errorf("expected liabilities 45000, got %d", current.TotalLiabilities)
		}
		if current.NetWorth != 255000 {
			t.Errorf("expected net worth 255000, got %d", current.NetWorth)
		}
	})

	t.Run("overdrawn_asset_counts_as_liability", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewNetWorthService(db)
		user := testutil.CreateTestUser(t, db)

		testutil.CreateTestAccountWithBalance(t, db, user.ID, -5000)

		current, err := svc.Current(user.ID)
		testutil.AssertNoError(t, err)

		if current.TotalAssets != 0 {
			t.Errorf("expected assets 0, got %d", current.TotalAssets)
		}
		if current.TotalLiabilities != 5000 {
			t.Errorf("expected liabilities 5000, got %d", current.TotalLiabilities)
		}
	})

	t.Run("ignores_inactive_accounts", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewNetWorthService(db)
		user := testutil.CreateTestUser(t, db)

		account := testutil.CreateTestAccountWithBalance(t, db, user.ID, 100000)
		if err := db.Model(account).Update("is_active", false).Error; err != nil {
			t.Fatalf("failed to deactivate account: %v", err)
		}

		current, err := svc.Current(user.ID)
		testutil.AssertNoError(t, err)

		if current.TotalAssets != 0 {
			t.Errorf("expected assets 0 for inactive account, got %d", current.TotalAssets)
		}
	})
}
