package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "homebudget/internal/errors"
	"homebudget/internal/models"
	"homebudget/internal/pagination"
	"homebudget/internal/services"
)

// --- mock service ---

type mockBudgetService struct {
	createPeriodFn     func(userID, name string, startDate, endDate time.Time) (*models.BudgetPeriod, error)
	getUserPeriodsFn   func(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.BudgetPeriod], error)
	getPeriodDetailFn  func(userID, periodID string, rollupChildren bool) (*services.PeriodDetail, error)
	createNextPeriodFn func(userID, sourcePeriodID, name string, overrides map[string]services.RolloverOverride) (*services.PeriodDetail, error)
	addItemFn          func(userID, periodID, categoryID string, allocated int64, rolloverEnabled bool, notes string) (*models.BudgetItem, error)
	updateItemFn       func(userID, itemID string, allocated *int64, rolloverEnabled *bool, notes *string) (*models.BudgetItem, error)
	deleteItemFn       func(userID, itemID string) error
}

func (m *mockBudgetService) CreatePeriod(userID, name string, startDate, endDate time.Time) (*models.BudgetPeriod, error) {
	if m.createPeriodFn != nil {
		return m.createPeriodFn(userID, name, startDate, endDate)
	}
	return &models.BudgetPeriod{}, nil
}

func (m *mockBudgetService) GetUserPeriods(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.BudgetPeriod], error) {
	if m.getUserPeriodsFn != nil {
		return m.getUserPeriodsFn(userID, page)
	}
	return &pagination.PageResponse[models.BudgetPeriod]{}, nil
}

func (m *mockBudgetService) GetPeriodDetail(userID, periodID string, rollupChildren bool) (*services.PeriodDetail, error) {
	if m.getPeriodDetailFn != nil {
		return m.getPeriodDetailFn(userID, periodID, rollupChildren)
	}
	return &services.PeriodDetail{Period: &models.BudgetPeriod{}}, nil
}

func (m *mockBudgetService) CreateNextPeriod(userID, sourcePeriodID, name string, overrides map[string]services.RolloverOverride) (*services.PeriodDetail, error) {
	if m.createNextPeriodFn != nil {
		return m.createNextPeriodFn(userID, sourcePeriodID, name, overrides)
	}
	return &services.PeriodDetail{Period: &models.BudgetPeriod{}}, nil
}

func (m *mockBudgetService) AddItem(userID, periodID, categoryID string, allocated int64, rolloverEnabled bool, notes string) (*models.BudgetItem, error) {
	if m.addItemFn != nil {
		return m.addItemFn(userID, periodID, categoryID, allocated, rolloverEnabled, notes)
	}
	return &models.BudgetItem{}, nil
}

func (m *mockBudgetService) UpdateItem(userID, itemID string, allocated *int64, rolloverEnabled *bool, notes *string) (*models.BudgetItem, error) {
	if m.updateItemFn != nil {
		return m.updateItemFn(userID, itemID, allocated, rolloverEnabled, notes)
	}
	return &models.BudgetItem{}, nil
}

func (m *mockBudgetService) DeleteItem(userID, itemID string) error {
	if m.deleteItemFn != nil {
		return m.deleteItemFn(userID, itemID)
	}
	return nil
}

func (m *mockBudgetService) ItemSpent(_ string, _ *models.BudgetPeriod, _ string) (int64, error) {
	return 0, nil
}

var _ services.BudgetServicer = (*mockBudgetService)(nil)

// --- test helpers ---

const (
	testPeriodID   = "0192d7a0-0000-7000-8000-0000000000aa"
	testItemID     = "0192d7a0-0000-7000-8000-0000000000bb"
	testCategoryID = "0192d7a0-0000-7000-8000-0000000000cc"
)

func setupBudgetRouter(svc services.BudgetServicer) *gin.Engine {
	handler := NewBudgetHandler(svc, &mockAuditService{})
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/budget-periods", handler.CreatePeriod)
	auth.GET("/budget-periods", handler.GetUserPeriods)
	auth.GET("/budget-periods/:id", handler.GetPeriodDetail)
	auth.POST("/budget-periods/:id/rollover", handler.Rollover)
	auth.POST("/budget-periods/:id/items", handler.AddItem)
	auth.PATCH("/budget-items/:id", handler.UpdateItem)
	auth.DELETE("/budget-items/:id", handler.DeleteItem)
	return r
}

// --- tests ---

func TestBudgetHandler_CreatePeriod(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		svc := &mockBudgetService{
			createPeriodFn: func(userID, name string, startDate, endDate time.Time) (*models.BudgetPeriod, error) {
				if userID != testUserID {
					t.Errorf("expected user %s, got %s", testUserID, userID)
				}
				if !startDate.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) {
					t.Errorf("unexpected start date %v", startDate)
				}
				return &models.BudgetPeriod{
					Base:      models.Base{ID: testPeriodID},
					UserID:    userID,
					Name:      name,
					StartDate: startDate,
					EndDate:   endDate,
				}, nil
			},
		}
		r := setupBudgetRouter(svc)

		rec := doRequest(r, "POST", "/budget-periods",
			`{"name":"Budget - March 2025","start_date":"2025-03-01","end_date":"2025-03-31"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		period := result["period"].(map[string]interface{})
		if period["name"] != "Budget - March 2025" {
			t.Errorf("unexpected period name %v", period["name"])
		}
	})

	t.Run("returns 400 on unparseable date", func(t *testing.T) {
		r := setupBudgetRouter(&mockBudgetService{})

		rec := doRequest(r, "POST", "/budget-periods",
			`{"name":"Bad","start_date":"03/01/2025","end_date":"2025-03-31"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on missing name", func(t *testing.T) {
		r := setupBudgetRouter(&mockBudgetService{})

		rec := doRequest(r, "POST", "/budget-periods",
			`{"start_date":"2025-03-01","end_date":"2025-03-31"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 409 when the start date is taken", func(t *testing.T) {
		svc := &mockBudgetService{
			createPeriodFn: func(_, _ string, _, _ time.Time) (*models.BudgetPeriod, error) {
				return nil, apperrors.ErrPeriodExists
			},
		}
		r := setupBudgetRouter(svc)

		rec := doRequest(r, "POST", "/budget-periods",
			`{"name":"Dup","start_date":"2025-03-01","end_date":"2025-03-31"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "PERIOD_EXISTS")
	})
}

func TestBudgetHandler_GetPeriodDetail(t *testing.T) {
	t.Run("returns 200 with detail", func(t *testing.T) {
		svc := &mockBudgetService{
			getPeriodDetailFn: func(_, periodID string, rollupChildren bool) (*services.PeriodDetail, error) {
				if periodID != testPeriodID {
					t.Errorf("expected period %s, got %s", testPeriodID, periodID)
				}
				if rollupChildren {
					t.Error("rollup_children should default to false")
				}
				return &services.PeriodDetail{
					Period: &models.BudgetPeriod{Base: models.Base{ID: periodID}, Name: "Budget - March 2025"},
					Categories: []services.CategorySummary{
						{CategoryID: testCategoryID, CategoryName: "Groceries", Allocated: 50000, Spent: 12345},
					},
				}, nil
			},
		}
		r := setupBudgetRouter(svc)

		rec := doRequest(r, "GET", "/budget-periods/"+testPeriodID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		categories := result["categories"].([]interface{})
		if len(categories) != 1 {
			t.Fatalf("expected 1 category summary, got %d", len(categories))
		}
	})

	t.Run("passes rollup_children flag through", func(t *testing.T) {
		var gotRollup bool
		svc := &mockBudgetService{
			getPeriodDetailFn: func(_, _ string, rollupChildren bool) (*services.PeriodDetail, error) {
				gotRollup = rollupChildren
				return &services.PeriodDetail{Period: &models.BudgetPeriod{}}, nil
			},
		}
		r := setupBudgetRouter(svc)

		rec := doRequest(r, "GET", "/budget-periods/"+testPeriodID+"?rollup_children=true", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !gotRollup {
			t.Error("expected rollup_children=true to reach the service")
		}
	})

	t.Run("returns 400 on malformed period id", func(t *testing.T) {
		r := setupBudgetRouter(&mockBudgetService{})

		rec := doRequest(r, "GET", "/budget-periods/not-a-uuid", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 404 when period not found", func(t *testing.T) {
		svc := &mockBudgetService{
			getPeriodDetailFn: func(_, _ string, _ bool) (*services.PeriodDetail, error) {
				return nil, apperrors.ErrPeriodNotFound
			},
		}
		r := setupBudgetRouter(svc)

		rec := doRequest(r, "GET", "/budget-periods/"+testPeriodID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "PERIOD_NOT_FOUND")
	})
}

func TestBudgetHandler_Rollover(t *testing.T) {
	t.Run("returns 201 and converts overrides", func(t *testing.T) {
		var gotOverrides map[string]services.RolloverOverride
		svc := &mockBudgetService{
			createNextPeriodFn: func(_, sourcePeriodID, name string, overrides map[string]services.RolloverOverride) (*services.PeriodDetail, error) {
				if sourcePeriodID != testPeriodID {
					t.Errorf("expected source period %s, got %s", testPeriodID, sourcePeriodID)
				}
				gotOverrides = overrides
				return &services.PeriodDetail{
					Period: &models.BudgetPeriod{Base: models.Base{ID: testItemID}, Name: name},
				}, nil
			},
		}
		r := setupBudgetRouter(svc)

		rec := doRequest(r, "POST", "/budget-periods/"+testPeriodID+"/rollover",
			`{"overrides":{"`+testCategoryID+`":{"mode":"custom","amount":2500}}}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		override, ok := gotOverrides[testCategoryID]
		if !ok {
			t.Fatal("expected the override to reach the service")
		}
		if override.Mode != services.RolloverModeCustom {
			t.Errorf("expected custom mode, got %s", override.Mode)
		}
		if override.Amount != 2500 {
			t.Errorf("expected amount 2500, got %d", override.Amount)
		}
	})

	t.Run("returns 400 on unknown override mode", func(t *testing.T) {
		r := setupBudgetRouter(&mockBudgetService{})

		rec := doRequest(r, "POST", "/budget-periods/"+testPeriodID+"/rollover",
			`{"overrides":{"`+testCategoryID+`":{"mode":"halve"}}}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 409 when next period already exists", func(t *testing.T) {
		svc := &mockBudgetService{
			createNextPeriodFn: func(_, _, _ string, _ map[string]services.RolloverOverride) (*services.PeriodDetail, error) {
				return nil, apperrors.ErrPeriodExists
			},
		}
		r := setupBudgetRouter(svc)

		rec := doRequest(r, "POST", "/budget-periods/"+testPeriodID+"/rollover", `{}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})

	t.Run("returns 404 when source period not found", func(t *testing.T) {
		svc := &mockBudgetService{
			createNextPeriodFn: func(_, _, _ string, _ map[string]services.RolloverOverride) (*services.PeriodDetail, error) {
				return nil, apperrors.ErrPeriodNotFound
			},
		}
		r := setupBudgetRouter(svc)

		rec := doRequest(r, "POST", "/budget-periods/"+testPeriodID+"/rollover", `{}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestBudgetHandler_AddItem(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		svc := &mockBudgetService{
			addItemFn: func(_, periodID, categoryID string, allocated int64, rolloverEnabled bool, _ string) (*models.BudgetItem, error) {
				if periodID != testPeriodID {
					t.Errorf("expected period %s, got %s", testPeriodID, periodID)
				}
				if allocated != 50000 {
					t.Errorf("expected allocated 50000, got %d", allocated)
				}
				if !rolloverEnabled {
					t.Error("expected rollover_enabled true")
				}
				return &models.BudgetItem{
					Base:           models.Base{ID: testItemID},
					BudgetPeriodID: periodID,
					CategoryID:     categoryID,
					Allocated:      allocated,
				}, nil
			},
		}
		r := setupBudgetRouter(svc)

		rec := doRequest(r, "POST", "/budget-periods/"+testPeriodID+"/items",
			`{"category_id":"`+testCategoryID+`","allocated":50000,"rollover_enabled":true}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("returns 400 on malformed category id", func(t *testing.T) {
		r := setupBudgetRouter(&mockBudgetService{})

		rec := doRequest(r, "POST", "/budget-periods/"+testPeriodID+"/items",
			`{"category_id":"groceries","allocated":50000}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on negative allocation", func(t *testing.T) {
		r := setupBudgetRouter(&mockBudgetService{})

		rec := doRequest(r, "POST", "/budget-periods/"+testPeriodID+"/items",
			`{"category_id":"`+testCategoryID+`","allocated":-100}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 409 on duplicate category", func(t *testing.T) {
		svc := &mockBudgetService{
			addItemFn: func(_, _, _ string, _ int64, _ bool, _ string) (*models.BudgetItem, error) {
				return nil, apperrors.ErrDuplicateBudgetItem
			},
		}
		r := setupBudgetRouter(svc)

		rec := doRequest(r, "POST", "/budget-periods/"+testPeriodID+"/items",
			`{"category_id":"`+testCategoryID+`","allocated":50000}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_BUDGET_ITEM")
	})
}

func TestBudgetHandler_UpdateItem(t *testing.T) {
	t.Run("passes only supplied fields", func(t *testing.T) {
		svc := &mockBudgetService{
			updateItemFn: func(_, itemID string, allocated *int64, rolloverEnabled *bool, notes *string) (*models.BudgetItem, error) {
				if itemID != testItemID {
					t.Errorf("expected item %s, got %s", testItemID, itemID)
				}
				if allocated == nil || *allocated != 75000 {
					t.Errorf("expected allocated 75000, got %v", allocated)
				}
				if rolloverEnabled != nil {
					t.Error("expected rollover_enabled to be omitted")
				}
				if notes != nil {
					t.Error("expected notes to be omitted")
				}
				return &models.BudgetItem{Base: models.Base{ID: itemID}, Allocated: *allocated}, nil
			},
		}
		r := setupBudgetRouter(svc)

		rec := doRequest(r, "PATCH", "/budget-items/"+testItemID, `{"allocated":75000}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("returns 404 when item not found", func(t *testing.T) {
		svc := &mockBudgetService{
			updateItemFn: func(_, _ string, _ *int64, _ *bool, _ *string) (*models.BudgetItem, error) {
				return nil, apperrors.ErrBudgetItemNotFound
			},
		}
		r := setupBudgetRouter(svc)

		rec := doRequest(r, "PATCH", "/budget-items/"+testItemID, `{"allocated":75000}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestBudgetHandler_DeleteItem(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		var deletedID string
		svc := &mockBudgetService{
			deleteItemFn: func(_, itemID string) error {
				deletedID = itemID
				return nil
			},
		}
		r := setupBudgetRouter(svc)

		rec := doRequest(r, "DELETE", "/budget-items/"+testItemID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if deletedID != testItemID {
			t.Errorf("expected delete of %s, got %s", testItemID, deletedID)
		}
	})

	t.Run("returns 404 when item not found", func(t *testing.T) {
		svc := &mockBudgetService{
			deleteItemFn: func(_, _ string) error {
				return apperrors.ErrBudgetItemNotFound
			},
		}
		r := setupBudgetRouter(svc)

		rec := doRequest(r, "DELETE", "/budget-items/"+testItemID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}
