package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/VeerPalSingh-0000/Revision-Mania/internal/database"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProblem_StringAndObjectBodies(t *testing.T) {
	h := setupHandlers(t)
	token, id := h.register(t, "create@example.com")

	w, out := h.do(t, http.MethodPost, "/api/problems", token, `"https://leetcode.com/problems/two-sum/"`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	p := out["problem"].(map[string]interface{})
	assert.Equal(t, id, p["uid"])
	assert.Equal(t, float64(1), p["solveCount"])
	assert.Equal(t, false, p["isRevision"])
	assert.Nil(t, p["originalProblemId"])

	w, out = h.do(t, http.MethodPost, "/api/problems", token, gin.H{
		"problem":    "  Course Schedule  ",
		"difficulty": "Medium",
		"tags":       []string{"graphs", "Graphs", " bfs "},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	p = out["problem"].(map[string]interface{})
	assert.Equal(t, "Course Schedule", p["problem"])
	assert.Equal(t, "medium", p["difficulty"])
	assert.Equal(t, []interface{}{"graphs", "bfs"}, p["tags"])

	w, out = h.do(t, http.MethodGet, "/api/problems", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := out["problems"].([]interface{})
	require.Len(t, list, 2)
	links := 0
	for _, item := range list {
		if item.(map[string]interface{})["isLink"] == true {
			links++
		}
	}
	assert.Equal(t, 1, links)
}

func TestCreateProblem_Validation(t *testing.T) {
	h := setupHandlers(t)
	token, _ := h.register(t, "invalid@example.com")

	for _, body := range []interface{}{`"   "`, gin.H{"problem": ""}, gin.H{"problem": "x", "difficulty": "extreme"}, `[1,2]`} {
		w, out := h.do(t, http.MethodPost, "/api/problems", token, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Equal(t, "VALIDATION_ERROR", out["kind"])
	}

	w, out := h.do(t, http.MethodGet, "/api/problems", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, out["problems"])
}

func TestSolveAgainUndoAndWindow(t *testing.T) {
	h := setupHandlers(t)
	token, _ := h.register(t, "solve@example.com")

	_, out := h.do(t, http.MethodPost, "/api/problems", token, `"Two Sum"`)
	originalID := out["problem"].(map[string]interface{})["id"].(string)

	w, out := h.do(t, http.MethodPost, "/api/problems/"+originalID+"/solve-again", token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	rev := out["revision"].(map[string]interface{})
	assert.Equal(t, originalID, rev["originalProblemId"])
	assert.Equal(t, true, rev["isRevision"])
	assert.Equal(t, float64(1), rev["solveCount"])
	revID := rev["id"].(string)

	w, out = h.do(t, http.MethodGet, "/api/problems/"+originalID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), out["problem"].(map[string]interface{})["solveCount"])
	assert.Equal(t, false, out["canUndo"])

	w, out = h.do(t, http.MethodGet, "/api/problems/"+revID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, out["canUndo"])
	assert.Nil(t, out["nextDue"])

	// Undo within the window.
	w, _ = h.do(t, http.MethodPost, "/api/problems/"+revID+"/undo", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	_, out = h.do(t, http.MethodGet, "/api/problems/"+originalID, token, nil)
	assert.Equal(t, float64(1), out["problem"].(map[string]interface{})["solveCount"])

	// Undo after the window.
	_, out = h.do(t, http.MethodPost, "/api/problems/"+originalID+"/solve-again", token, nil)
	revID = out["revision"].(map[string]interface{})["id"].(string)
	h.clock.Advance(5*time.Minute + time.Second)

	w, out = h.do(t, http.MethodPost, "/api/problems/"+revID+"/undo", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "WINDOW_EXPIRED", out["kind"])

	// Undo of an original.
	w, out = h.do(t, http.MethodPost, "/api/problems/"+originalID+"/undo", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", out["kind"])
}

func TestDeleteProblem(t *testing.T) {
	h := setupHandlers(t)
	token, _ := h.register(t, "delete@example.com")

	_, out := h.do(t, http.MethodPost, "/api/problems", token, `"Two Sum"`)
	id := out["problem"].(map[string]interface{})["id"].(string)

	w, _ := h.do(t, http.MethodDelete, "/api/problems/"+id, token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, out = h.do(t, http.MethodDelete, "/api/problems/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", out["kind"])

	w, _ = h.do(t, http.MethodPost, "/api/problems/"+id+"/solve-again", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProblems_ScopedPerUser(t *testing.T) {
	h := setupHandlers(t)
	alice, _ := h.register(t, "alice@example.com")
	bob, _ := h.register(t, "bob@example.com")

	_, out := h.do(t, http.MethodPost, "/api/problems", alice, `"Alice's problem"`)
	id := out["problem"].(map[string]interface{})["id"].(string)

	w, _ := h.do(t, http.MethodGet, "/api/problems/"+id, bob, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = h.do(t, http.MethodDelete, "/api/problems/"+id, bob, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	_, out = h.do(t, http.MethodGet, "/api/problems", bob, nil)
	assert.Empty(t, out["problems"])
}

func TestDueStatsArchiveAndTimezone(t *testing.T) {
	h := setupHandlers(t)
	token, uid := h.register(t, "due@example.com")

	// Solved three days before the clock, so due in the 3-day tier.
	solved := h.clock.Now().AddDate(0, 0, -3)
	require.NoError(t, h.seedProblem(uid, "Old problem", solved))
	_, _ = h.do(t, http.MethodPost, "/api/problems/refresh", token, nil)

	w, out := h.do(t, http.MethodGet, "/api/problems/due", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), out["totalDue"])
	tiers := out["due"].([]interface{})
	require.Len(t, tiers, 1)
	tier := tiers[0].(map[string]interface{})
	assert.Equal(t, "3 days ago", tier["interval"].(map[string]interface{})["label"])

	_, _ = h.do(t, http.MethodPost, "/api/problems", token, `"Fresh problem"`)

	w, out = h.do(t, http.MethodGet, "/api/problems/stats", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := out["stats"].(map[string]interface{})
	assert.Equal(t, float64(2), stats["total"])
	assert.Equal(t, float64(2), stats["activeDays"])

	w, out = h.do(t, http.MethodGet, "/api/problems/archive", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	days := out["days"].([]interface{})
	require.Len(t, days, 2)
	assert.Equal(t, "2024-03-20", days[0].(map[string]interface{})["day"])
	assert.Equal(t, "2024-03-17", days[1].(map[string]interface{})["day"])

	w, out = h.do(t, http.MethodGet, "/api/problems/overview?tz=Asia/Kolkata", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), out["totalDue"])

	w, out = h.do(t, http.MethodGet, "/api/problems/overview?tz=Mars/Olympus", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", out["kind"])
}

func (h *harness) seedProblem(owner, text string, solvedAt time.Time) error {
	p := models.Problem{
		Owner:        owner,
		ProblemText:  text,
		LastSolvedAt: solvedAt,
		CreatedAt:    solvedAt,
		SolveCount:   1,
	}
	return database.DB.Create(&p).Error
}
