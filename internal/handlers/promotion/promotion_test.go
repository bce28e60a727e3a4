package promotion

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tiffin-promotions/internal/domain/promotion"
	"tiffin-promotions/internal/pkg/idgen"
	"tiffin-promotions/internal/repository/memory"
	service "tiffin-promotions/internal/service/promotion"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := service.NewPromotionService(
		memory.NewPromotionRepository(),
		idgen.NewULIDGenerator(),
		zap.NewNop(),
		service.WithClock(func() time.Time { return fixedNow }),
	)
	h := NewPromotionHandler(svc, zap.NewNop())

	r := gin.New()
	g := r.Group("/promotions")
	g.GET("", h.SearchPromotions)
	g.GET("/stats", h.GetPromotionStats)
	g.GET("/:id", h.GetPromotion)
	g.POST("", h.CreatePromotion)
	g.PUT("/:id", h.UpdatePromotion)
	g.PATCH("/:id", h.UpdatePromotion)
	g.PATCH("/:id/status", h.UpdatePromotionStatus)
	g.DELETE("/:id", h.DeletePromotion)
	return r
}

func do(t *testing.T, r *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func create(t *testing.T, r *gin.Engine, body map[string]any) promotion.Promotion {
	t.Helper()
	w, env := do(t, r, http.MethodPost, "/promotions", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var p promotion.Promotion
	require.NoError(t, json.Unmarshal(env.Data, &p))
	return p
}

func TestCreateAndGet(t *testing.T) {
	r := newRouter(t)

	p := create(t, r, map[string]any{
		"name":        "Lunch 20",
		"code":        "LUNCH20",
		"category":    "percent_off",
		"percent_off": 20,
		"start_at":    "2024-01-01T00:00:00Z",
		"end_at":      "2024-02-01T00:00:00Z",
		"status":      "active",
	})
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, promotion.StatusActive, p.Status)

	w, env := do(t, r, http.MethodGet, "/promotions/"+p.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	var got promotion.Promotion
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "LUNCH20", got.Code)
}

func TestCreateRejectsInvalidPromotion(t *testing.T) {
	r := newRouter(t)

	w, env := do(t, r, http.MethodPost, "/promotions", map[string]any{
		"name":     "No value",
		"category": "percent_off",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)

	var details struct {
		Violations []promotion.FieldViolation `json:"violations"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &details))
	require.NotEmpty(t, details.Violations)
	assert.Equal(t, "percent_off", details.Violations[0].Field)

	w, env = do(t, r, http.MethodGet, "/promotions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page promotion.PageEnvelope
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Zero(t, page.Total)
}

func TestCreateMissingRequiredFieldsReportsViolations(t *testing.T) {
	r := newRouter(t)

	w, env := do(t, r, http.MethodPost, "/promotions", map[string]any{"code": "X"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var details struct {
		Violations []promotion.FieldViolation `json:"violations"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &details))

	rules := map[string]string{}
	for _, v := range details.Violations {
		rules[v.Field] = v.Rule
	}
	assert.Equal(t, "required", rules["name"])
	assert.Equal(t, "required", rules["category"])
}

func TestCreateRejectsUndecodableBody(t *testing.T) {
	r := newRouter(t)

	w, env := do(t, r, http.MethodPost, "/promotions", map[string]any{"name": 42})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
}

func TestUpdateStatusMissingStatusReportsViolation(t *testing.T) {
	r := newRouter(t)
	p := create(t, r, map[string]any{"name": "Drink", "category": "free_item", "free_item_sub_type": "drink"})

	w, env := do(t, r, http.MethodPatch, "/promotions/"+p.ID+"/status", map[string]any{})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var details struct {
		Violations []promotion.FieldViolation `json:"violations"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &details))
	require.Len(t, details.Violations, 1)
	assert.Equal(t, "status", details.Violations[0].Field)
}

func TestUnknownIDIsNotFound(t *testing.T) {
	r := newRouter(t)

	w, _ := do(t, r, http.MethodGet, "/promotions/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, r, http.MethodPatch, "/promotions/missing", map[string]any{"name": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, r, http.MethodPatch, "/promotions/missing/status", map[string]any{"status": "paused"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, r, http.MethodDelete, "/promotions/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateStatusAndDelete(t *testing.T) {
	r := newRouter(t)
	p := create(t, r, map[string]any{
		"name":               "Free drink",
		"category":           "free_item",
		"free_item_sub_type": "drink",
		"status":             "active",
	})

	w, env := do(t, r, http.MethodPatch, "/promotions/"+p.ID+"/status", map[string]any{"status": "paused"})
	require.Equal(t, http.StatusOK, w.Code)
	var paused promotion.Promotion
	require.NoError(t, json.Unmarshal(env.Data, &paused))
	assert.Equal(t, promotion.StatusPaused, paused.Status)
	assert.True(t, paused.UpdatedAt.After(p.UpdatedAt))

	w, _ = do(t, r, http.MethodPatch, "/promotions/"+p.ID+"/status", map[string]any{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = do(t, r, http.MethodPut, "/promotions/"+p.ID, map[string]any{"name": "Free soda"})
	require.Equal(t, http.StatusOK, w.Code)
	var renamed promotion.Promotion
	require.NoError(t, json.Unmarshal(env.Data, &renamed))
	assert.Equal(t, "Free soda", renamed.Name)
	assert.Equal(t, promotion.FreeItemDrink, renamed.FreeItemSubType)

	w, _ = do(t, r, http.MethodDelete, "/promotions/"+p.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = do(t, r, http.MethodDelete, "/promotions/"+p.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearchQueryParameters(t *testing.T) {
	r := newRouter(t)
	create(t, r, map[string]any{"name": "Drink", "category": "free_item", "free_item_sub_type": "drink", "status": "active"})
	create(t, r, map[string]any{"name": "Snack", "category": "free_item", "free_item_sub_type": "snack", "status": "paused"})
	create(t, r, map[string]any{"name": "Ten off", "category": "percent_off", "percent_off": 10, "status": "active",
		"start_at": "2024-03-01T00:00:00Z", "end_at": "2024-04-01T00:00:00Z"})

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"comma separated statuses", "?status=active,paused&sort=name", []string{"Drink", "Snack"}},
		{"repeated categories", "?category=free_item&category=percent_off&sort=-name", []string{"Ten off", "Snack", "Drink"}},
		{"sub type", "?free_item_sub_type=snack", []string{"Snack"}},
		{"text", "?search=ten", []string{"Ten off"}},
		{"date only end covers the day", "?start_date=2024-02-01&end_date=2024-03-01&category=percent_off", []string{"Ten off"}},
		{"date before window", "?end_date=2024-02-29&category=percent_off", []string{}},
		{"page size", "?sort=name&page_size=1&page=2", []string{"Snack"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := do(t, r, http.MethodGet, "/promotions"+tt.query, nil)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			var page promotion.PageEnvelope
			require.NoError(t, json.Unmarshal(env.Data, &page))
			names := make([]string, 0, len(page.Items))
			for _, p := range page.Items {
				names = append(names, p.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestSearchHugePageReturnsEmptyPage(t *testing.T) {
	r := newRouter(t)
	create(t, r, map[string]any{"name": "Drink", "category": "free_item", "free_item_sub_type": "drink"})

	w, env := do(t, r, http.MethodGet, "/promotions?page=9223372036854775807", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var page promotion.PageEnvelope
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Empty(t, page.Items)
	assert.Equal(t, 1, page.Total)
}

func TestSearchRejectsBadParameters(t *testing.T) {
	r := newRouter(t)

	for _, q := range []string{
		"?page=two",
		"?start_date=yesterday",
		"?status=archived",
		"?sort=colour",
		"?start_date=2024-03-01&end_date=2024-02-01",
	} {
		w, env := do(t, r, http.MethodGet, "/promotions"+q, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
		assert.False(t, env.Success, q)
	}
}

func TestStats(t *testing.T) {
	r := newRouter(t)
	create(t, r, map[string]any{"name": "Drink", "category": "free_item", "free_item_sub_type": "drink", "status": "active"})

	w, env := do(t, r, http.MethodGet, "/promotions/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats promotion.Stats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.EqualValues(t, 1, stats.Total)
	assert.EqualValues(t, 1, stats.ByStatus[promotion.StatusActive])
	assert.EqualValues(t, 0, stats.ByCategory[promotion.CategoryReferral])
}
