package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevisionFlow(t *testing.T) {
	a := setupApp(t)

	// 1. Register
	code, out := a.request(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"displayName": "Flow",
		"email":       "flow@example.com",
		"password":    "secret123",
	})
	require.Equal(t, http.StatusCreated, code)
	token := out["token"].(string)
	uid := out["user"].(map[string]interface{})["id"].(string)

	// 2. Add a problem
	code, out = a.request(t, http.MethodPost, "/api/problems", token, `"https://leetcode.com/problems/two-sum/"`)
	require.Equal(t, http.StatusCreated, code)
	originalID := out["problem"].(map[string]interface{})["id"].(string)

	// 3. One day later it is due in the first tier
	a.clock.Advance(24 * time.Hour)
	code, out = a.request(t, http.MethodGet, "/api/problems/overview", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), out["totalDue"])

	// 4. Solve again: two records, original count 2, nothing due any more
	code, out = a.request(t, http.MethodPost, "/api/problems/"+originalID+"/solve-again", token, nil)
	require.Equal(t, http.StatusCreated, code)
	revID := out["revision"].(map[string]interface{})["id"].(string)

	code, out = a.request(t, http.MethodGet, "/api/problems/overview", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), out["totalDue"])
	assert.Len(t, out["problems"], 2)

	persisted, err := a.repo.List(context.Background(), uid)
	require.NoError(t, err)
	require.Len(t, persisted, 2)

	// 5. Undo inside the window restores the pre-solve state
	code, _ = a.request(t, http.MethodPost, "/api/problems/"+revID+"/undo", token, nil)
	require.Equal(t, http.StatusOK, code)

	persisted, err = a.repo.List(context.Background(), uid)
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, 1, persisted[0].SolveCount)

	code, out = a.request(t, http.MethodGet, "/api/problems/due", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), out["totalDue"])

	// 6. Solve again, wait past the window, undo is refused
	code, out = a.request(t, http.MethodPost, "/api/problems/"+originalID+"/solve-again", token, nil)
	require.Equal(t, http.StatusCreated, code)
	revID = out["revision"].(map[string]interface{})["id"].(string)

	a.clock.Advance(6 * time.Minute)
	code, out = a.request(t, http.MethodPost, "/api/problems/"+revID+"/undo", token, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "WINDOW_EXPIRED", out["kind"])

	persisted, err = a.repo.List(context.Background(), uid)
	require.NoError(t, err)
	assert.Len(t, persisted, 2)

	// 7. Deleting the original keeps the revision
	code, _ = a.request(t, http.MethodDelete, "/api/problems/"+originalID, token, nil)
	require.Equal(t, http.StatusOK, code)

	persisted, err = a.repo.List(context.Background(), uid)
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, revID, persisted[0].ID)
}

func TestHealth(t *testing.T) {
	a := setupApp(t)

	code, out := a.request(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", out["status"])
	checks := out["checks"].(map[string]interface{})
	assert.Equal(t, "ok", checks["database"])
	assert.Equal(t, "not configured", checks["redis"])
}

func TestProblemsRequireAuth(t *testing.T) {
	a := setupApp(t)

	code, out := a.request(t, http.MethodGet, "/api/problems", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "UNAUTHORIZED", out["kind"])
}
