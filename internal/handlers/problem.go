package handlers

import (
	"net/http"
	"time"

	"github.com/VeerPalSingh-0000/Revision-Mania/internal/middleware"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/services"
	apperrors "github.com/VeerPalSingh-0000/Revision-Mania/pkg/errors"
	"github.com/VeerPalSingh-0000/Revision-Mania/pkg/utils"
	"github.com/gin-gonic/gin"
)

// problemContext loads the caller's store and request location, rendering
// the error itself when either fails.
func problemContext(c *gin.Context) (*services.ProblemStore, *time.Location, bool) {
	loc, err := requestLocation(c)
	if err != nil {
		fail(c, err)
		return nil, nil, false
	}
	store, err := Stores.Get(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		fail(c, err)
		return nil, nil, false
	}
	return store, loc, true
}

// problemID rejects ids the store could never have issued.
func problemID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if !utils.IsUUID(id) {
		fail(c, apperrors.NotFound("Problem not found"))
		return "", false
	}
	return id, true
}

// GET /api/problems
func ListProblems(c *gin.Context) {
	store, loc, ok := problemContext(c)
	if !ok {
		return
	}
	o := store.Overview(loc)
	resp := gin.H{
		"problems": o.Problems,
		"stats":    o.Stats,
	}
	if o.SyncError != "" {
		resp["syncError"] = o.SyncError
	}
	c.JSON(http.StatusOK, resp)
}

// GET /api/problems/overview
func GetOverview(c *gin.Context) {
	store, loc, ok := problemContext(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, store.Overview(loc))
}

// GET /api/problems/due
func GetDueProblems(c *gin.Context) {
	store, loc, ok := problemContext(c)
	if !ok {
		return
	}
	due := store.Scheduler().DueToday(store.Problems(), store.Now().In(loc))
	c.JSON(http.StatusOK, gin.H{
		"due":      due,
		"totalDue": services.TotalDue(due),
	})
}

// GET /api/problems/stats
func GetStats(c *gin.Context) {
	store, loc, ok := problemContext(c)
	if !ok {
		return
	}
	stats := services.Summarize(store.Problems(), store.Policy(), store.Now().In(loc))
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// GET /api/problems/archive
func GetArchive(c *gin.Context) {
	store, loc, ok := problemContext(c)
	if !ok {
		return
	}
	days := services.GroupByDay(store.Problems(), loc)
	if days == nil {
		days = []services.DayGroup{}
	}
	c.JSON(http.StatusOK, gin.H{"days": days})
}

// GET /api/problems/:id
func GetProblem(c *gin.Context) {
	id, ok := problemID(c)
	if !ok {
		return
	}
	store, _, ok := problemContext(c)
	if !ok {
		return
	}
	p, found := store.Find(id)
	if !found {
		fail(c, apperrors.NotFound("Problem not found"))
		return
	}
	view := store.Scheduler().View(p, store.Policy(), store.Now())
	c.JSON(http.StatusOK, gin.H{
		"problem": view.Problem,
		"isLink":  view.IsLink,
		"canUndo": view.CanUndo,
		"nextDue": view.NextDue,
	})
}

// POST /api/problems
// Body is either a JSON string or {problem, difficulty?, platform?, tags?}.
func CreateProblem(c *gin.Context) {
	var input services.ProblemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Body must be a problem string or object")
		return
	}
	store, _, ok := problemContext(c)
	if !ok {
		return
	}

	p, err := store.Add(c.Request.Context(), input)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "problem": p})
}

// DELETE /api/problems/:id
func DeleteProblem(c *gin.Context) {
	id, ok := problemID(c)
	if !ok {
		return
	}
	store, _, ok := problemContext(c)
	if !ok {
		return
	}
	if err := store.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// POST /api/problems/:id/solve-again
func SolveAgain(c *gin.Context) {
	id, ok := problemID(c)
	if !ok {
		return
	}
	store, _, ok := problemContext(c)
	if !ok {
		return
	}
	rev, err := store.SolveAgain(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "revision": rev})
}

// POST /api/problems/:id/undo
func UndoRevision(c *gin.Context) {
	id, ok := problemID(c)
	if !ok {
		return
	}
	store, _, ok := problemContext(c)
	if !ok {
		return
	}
	if err := store.UndoRevision(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// POST /api/problems/refresh
func RefreshProblems(c *gin.Context) {
	store, loc, ok := problemContext(c)
	if !ok {
		return
	}
	if err := store.Refresh(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"problems": store.Overview(loc).Problems})
}
