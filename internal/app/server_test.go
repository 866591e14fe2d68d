package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/specialistvlad/taskgrid/internal/config"
	"github.com/specialistvlad/taskgrid/internal/model"
	"github.com/specialistvlad/taskgrid/internal/planning"
	"github.com/specialistvlad/taskgrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDay = "2025-03-10"

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestApp wires an App on the in-memory store. mutate may adjust the
// default model before wiring.
func newTestApp(t *testing.T, mutate func(*config.Model)) (*App, *gin.Engine) {
	t.Helper()
	m := config.Default()
	m.Storage.Driver = config.StorageMemory
	m.Log.Level = "debug"
	if mutate != nil {
		mutate(m)
	}
	buf := &testutil.SafeBuffer{}
	a, err := NewFromModel(context.Background(), buf, m)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a, a.Router()
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	_, r := newTestApp(t, nil)
	w := do(t, r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK\n", w.Body.String())
}

func TestDependencyEndpoints(t *testing.T) {
	a, r := newTestApp(t, nil)
	testutil.Seed(t, a.Store(), testutil.Tasks("a", "b", "c"), testutil.Edges("a", "b", "b", "c"))

	t.Run("check reports a cycle without writing", func(t *testing.T) {
		w := do(t, r, http.MethodPost, "/dependencies/check", `{"predecessor_id":"c","successor_id":"a"}`)
		require.Equal(t, http.StatusOK, w.Code)
		body := decode[map[string]any](t, w)
		assert.Equal(t, false, body["ok"])
		assert.Equal(t, "cycle", body["reason"])
		assert.Equal(t, "this dependency would create a cycle", body["error"])
	})

	t.Run("check accepts a valid edge", func(t *testing.T) {
		w := do(t, r, http.MethodPost, "/dependencies/check", `{"predecessor_id":"a","successor_id":"c"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, decode[map[string]any](t, w)["ok"])
	})

	t.Run("add refuses a cycle", func(t *testing.T) {
		w := do(t, r, http.MethodPost, "/dependencies", `{"predecessor_id":"c","successor_id":"a"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "cycle", decode[errorBody](t, w).Reason)
	})

	t.Run("add refuses a self edge", func(t *testing.T) {
		w := do(t, r, http.MethodPost, "/dependencies", `{"predecessor_id":"a","successor_id":"a"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "self_edge", decode[errorBody](t, w).Reason)
	})

	t.Run("add refuses an unknown task", func(t *testing.T) {
		w := do(t, r, http.MethodPost, "/dependencies", `{"predecessor_id":"a","successor_id":"zz"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("add requires both ids", func(t *testing.T) {
		w := do(t, r, http.MethodPost, "/dependencies", `{"predecessor_id":"a"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("add then remove", func(t *testing.T) {
		w := do(t, r, http.MethodPost, "/dependencies", `{"predecessor_id":"a","successor_id":"c"}`)
		require.Equal(t, http.StatusCreated, w.Code)

		w = do(t, r, http.MethodPost, "/dependencies", `{"predecessor_id":"a","successor_id":"c"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "duplicate", decode[errorBody](t, w).Reason)

		w = do(t, r, http.MethodDelete, "/dependencies", `{"predecessor_id":"a","successor_id":"c"}`)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = do(t, r, http.MethodDelete, "/dependencies", `{"predecessor_id":"a","successor_id":"c"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("chain", func(t *testing.T) {
		w := do(t, r, http.MethodGet, "/tasks/b/chain", "")
		require.Equal(t, http.StatusOK, w.Code)
		body := decode[map[string]any](t, w)
		assert.Equal(t, []any{"a"}, body["all_predecessors"])
		assert.Equal(t, []any{"c"}, body["all_successors"])
	})

	t.Run("picker disables successors", func(t *testing.T) {
		w := do(t, r, http.MethodGet, "/tasks/a/picker", "")
		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Options []struct {
				ID       string
				Disabled bool
			}
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		disabled := map[string]bool{}
		for _, o := range body.Options {
			disabled[o.ID] = o.Disabled
		}
		assert.True(t, disabled["b"])
		assert.True(t, disabled["c"])
	})

	t.Run("unknown task", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/tasks/zz/chain", "").Code)
		assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/tasks/zz/picker", "").Code)
	})
}

func TestImportAndDelete(t *testing.T) {
	_, r := newTestApp(t, nil)

	spec := `{"tasks":[{"ref":"x","title":"Write"},{"ref":"y","title":"Review"}],
		"dependencies":[{"predecessor":"x","successor":"y"}]}`
	w := do(t, r, http.MethodPost, "/tasks/import", spec)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var res struct {
		IDs map[string]string `json:"ids"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Len(t, res.IDs, 2)

	w = do(t, r, http.MethodGet, "/tasks", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decode[map[string]any](t, w)["count"])

	cyclic := `{"tasks":[{"ref":"p","title":"P"}],
		"dependencies":[{"predecessor":"p","successor":"` + res.IDs["x"] + `"},{"predecessor":"` + res.IDs["y"] + `","successor":"p"}]}`
	w = do(t, r, http.MethodPost, "/tasks/import", cyclic)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, http.MethodPost, "/tasks/import", `{"tasks":[{"ref":"q","title":"Q","colour":"red"}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, r, http.MethodDelete, "/tasks/"+res.IDs["x"], "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, r, http.MethodGet, "/tasks/"+res.IDs["y"]+"/chain", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[map[string]any](t, w)["all_predecessors"])
}

func seedPlanning(t *testing.T, a *App) {
	t.Helper()
	testutil.Seed(t, a.Store(), []model.Item{
		{ID: "meeting", Title: "Meeting", Kind: model.KindFixed, Day: testDay, Start: "09:00", DurationMinutes: model.Minutes(60)},
		{ID: "t1", Title: "Report", Kind: model.KindFlexible, DurationMinutes: model.Minutes(30)},
		{ID: "t2", Title: "Email", Kind: model.KindFlexible, DurationMinutes: model.Minutes(30)},
	}, nil)
}

func TestPlacementEndpoints(t *testing.T) {
	a, r := newTestApp(t, nil)
	seedPlanning(t, a)

	w := do(t, r, http.MethodPost, "/days/"+testDay+"/placements", `{"item_id":"t1","start":"09:30"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "conflict", decode[errorBody](t, w).Reason)

	w = do(t, r, http.MethodPost, "/days/"+testDay+"/placements", `{"item_id":"t1","start":"9.30"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, r, http.MethodPost, "/days/"+testDay+"/placements", `{"item_id":"meeting","start":"11:00"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, r, http.MethodPost, "/days/not-a-day/placements", `{"item_id":"t1","start":"11:00"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, r, http.MethodPost, "/days/"+testDay+"/placements", `{"item_id":"t1","start":"10:00","duration_minutes":45}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.EqualValues(t, 45, decode[map[string]any](t, w)["duration_minutes"])

	w = do(t, r, http.MethodGet, "/days/"+testDay+"/index", "")
	require.Equal(t, http.StatusOK, w.Code)
	var idx struct {
		Day   string         `json:"day"`
		Slots []slotResponse `json:"slots"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &idx))
	assert.Equal(t, testDay, idx.Day)
	require.Len(t, idx.Slots, 2)
	assert.Equal(t, 9, idx.Slots[0].Hour)
	assert.Equal(t, "meeting", idx.Slots[0].Items[0].ID)
	assert.Equal(t, 10, idx.Slots[1].Hour)

	assert.Equal(t, http.StatusNoContent, do(t, r, http.MethodDelete, "/placements/t1", "").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(t, r, http.MethodDelete, "/placements/meeting", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodDelete, "/placements/zz", "").Code)
}

func TestOptimizeWithoutSuggester(t *testing.T) {
	a, r := newTestApp(t, nil)
	seedPlanning(t, a)

	w := do(t, r, http.MethodPost, "/days/"+testDay+"/optimize", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, planning.Idle, a.Session().State())

	w = do(t, r, http.MethodGet, "/days/"+testDay+"/preview", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOptimizePreviewApply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suggestion.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"schedule": [
			{"item_id": "t1", "scheduled_start": "10:00"},
			{"item_id": "t2", "scheduled_start": "09:15"}
		],
		"reasoning": "Report first."
	}`), 0o644))

	a, r := newTestApp(t, func(m *config.Model) {
		m.Suggest.Provider = config.SuggestFile
		m.Suggest.File = path
	})
	seedPlanning(t, a)

	w := do(t, r, http.MethodPost, "/days/"+testDay+"/optimize", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	preview := decode[planning.Preview](t, w)
	assert.Equal(t, "Report first.", preview.Reasoning)
	require.Len(t, preview.Accepted, 1)
	assert.Equal(t, "t1", preview.Accepted[0].ItemID)
	require.Len(t, preview.Rejected, 1)
	assert.Equal(t, "t2", preview.Rejected[0].ItemID)

	w = do(t, r, http.MethodPost, "/days/"+testDay+"/optimize", "")
	assert.Equal(t, http.StatusConflict, w.Code, "a pending preview blocks a new request")

	w = do(t, r, http.MethodGet, "/days/2025-03-11/preview", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodGet, "/days/"+testDay+"/preview", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodPost, "/days/"+testDay+"/preview/apply", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	report := decode[planning.ApplyReport](t, w)
	require.Len(t, report.Applied, 1)
	assert.Nil(t, report.Failed)

	it, err := a.Store().GetItem(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "10:00", it.Start)
	assert.Equal(t, planning.Idle, a.Session().State())

	w = do(t, r, http.MethodDelete, "/days/"+testDay+"/preview", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAutoPlanThenReject(t *testing.T) {
	a, r := newTestApp(t, nil)
	seedPlanning(t, a)

	w := do(t, r, http.MethodPost, "/days/"+testDay+"/autoplan", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	preview := decode[planning.Preview](t, w)
	assert.Equal(t, planning.SourceAuto, preview.Source)
	assert.Len(t, preview.Accepted, 2)

	w = do(t, r, http.MethodDelete, "/days/"+testDay+"/preview", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	it, err := a.Store().GetItem(context.Background(), "t1")
	require.NoError(t, err)
	assert.Empty(t, it.Start, "a rejected preview writes nothing")
}
