package services

import (
	"testing"

	"homebudget/internal/pagination"
	"homebudget/internal/testutil"
)

func TestCreateCategory(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)

		cat, err := svc.CreateCategory(user.ID, "Groceries", "#4caf50", nil)
		testutil.AssertNoError(t, err)

		if cat.Name != "Groceries" {
			t.Errorf("expected name Groceries, got %s", cat.Name)
		}
		if cat.ParentID != nil {
			t.Error("expected root category")
		}
	})

	t.Run("nested", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)

		parent, err := svc.CreateCategory(user.ID, "Food", "", nil)
		testutil.AssertNoError(t, err)

		child, err := svc.CreateCategory(user.ID, "Restaurants", "", &parent.ID)
		testutil.AssertNoError(t, err)

		if child.ParentID == nil || *child.ParentID != parent.ID {
			t.Error("expected child to reference parent")
		}
	})

	t.Run("duplicate_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateCategory(user.ID, "Groceries", "", nil)
		testutil.AssertNoError(t, err)

		_, err = svc.CreateCategory(user.ID, "Groceries", "", nil)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("unknown_parent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)

		bogus := "00000000-0000-0000-0000-000000000000"
		_, err := svc.CreateCategory(user.ID, "Orphan", "", &bogus)
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})
}

func TestUpdateCategory(t *testing.T) {
	t.Run("rename", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID)

		_, err := svc.UpdateCategory(user.ID, cat.ID, "Renamed", "", nil)
		testutil.AssertNoError(t, err)

		refreshed, err := svc.GetCategoryByID(user.ID, cat.ID)
		testutil.AssertNoError(t, err)
		if refreshed.Name != "Renamed" {
			t.Errorf("expected name Renamed, got %s", refreshed.Name)
		}
	})

	t.Run("self_parent_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID)

		_, err := svc.UpdateCategory(user.ID, cat.ID, "", "", &cat.ID)
		testutil.AssertAppError(t, err, "CATEGORY_CYCLE")
	})

	t.Run("descendant_parent_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)

		// a -> b -> c, then try to re-parent a under c.
		a := testutil.CreateTestCategory(t, db, user.ID)
		b := testutil.CreateTestCategoryWithParent(t, db, user.ID, &a.ID)
		c := testutil.CreateTestCategoryWithParent(t, db, user.ID, &b.ID)

		_, err := svc.UpdateCategory(user.ID, a.ID, "", "", &c.ID)
		testutil.AssertAppError(t, err, "CATEGORY_CYCLE")
	})

	t.Run("detach_to_root", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)
		parent := testutil.CreateTestCategory(t, db, user.ID)
		child := testutil.CreateTestCategoryWithParent(t, db, user.ID, &parent.ID)

		empty := ""
		_, err := svc.UpdateCategory(user.ID, child.ID, "", "", &empty)
		testutil.AssertNoError(t, err)

		refreshed, err := svc.GetCategoryByID(user.ID, child.ID)
		testutil.AssertNoError(t, err)
		if refreshed.ParentID != nil {
			t.Error("expected parent cleared")
		}
	})
}

func TestDeleteCategory(t *testing.T) {
	t.Run("deletes_leaf", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID)

		testutil.AssertNoError(t, svc.DeleteCategory(user.ID, cat.ID))

		_, err := svc.GetCategoryByID(user.ID, cat.ID)
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})

	t.Run("rejects_with_children", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)
		parent := testutil.CreateTestCategory(t, db, user.ID)
		testutil.CreateTestCategoryWithParent(t, db, user.ID, &parent.ID)

		err := svc.DeleteCategory(user.ID, parent.ID)
		testutil.AssertAppError(t, err, "CATEGORY_HAS_CHILDREN")
	})

	t.Run("rejects_with_budget_items", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID)
		period := testutil.CreateTestPeriod(t, db, user.ID, date(2025, 1, 1), date(2025, 1, 31))
		testutil.CreateTestItem(t, db, period.ID, cat.ID, 10000, false)

		err := svc.DeleteCategory(user.ID, cat.ID)
		testutil.AssertAppError(t, err, "CATEGORY_IN_USE")
	})
}

func TestGetUserCategories(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewCategoryService(db)
	user1 := testutil.CreateTestUser(t, db)
	user2 := testutil.CreateTestUser(t, db)

	testutil.CreateTestCategory(t, db, user1.ID)
	testutil.CreateTestCategory(t, db, user1.ID)
	testutil.CreateTestCategory(t, db, user2.ID)

	page := pagination.PageRequest{Page: 1, PageSize: 20}
	result, err := svc.GetUserCategories(user1.ID, page)
	testutil.AssertNoError(t, err)

	if result.TotalItems != 2 {
		t.Errorf("expected 2 categories, got %d", result.TotalItems)
	}
}
