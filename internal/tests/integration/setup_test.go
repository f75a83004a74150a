package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/VeerPalSingh-0000/Revision-Mania/internal/config"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/database"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/handlers"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/migrations"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/models"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/repository"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/routes"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type app struct {
	router *gin.Engine
	clock  *clock
	repo   *repository.ProblemRepository
}

// setupApp wires the full router the way cmd/server does, on an in-memory
// SQLite database and without Redis.
func setupApp(t *testing.T) *app {
	gin.SetMode(gin.TestMode)

	// 0. Init Config for JWT
	config.AppConfig = &config.Config{
		JWTSecret:         "test_secret_key_12345",
		FrontendURL:       "http://localhost:5173",
		Timezone:          "UTC",
		RevisionIntervals: "1,3,7,15,30",
		UndoWindow:        5 * time.Minute,
	}

	// 1. Fresh database per test
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// 2. Run Migrations
	require.NoError(t, migrations.Apply(db))
	database.DB = db
	database.Redis = nil

	intervals, err := config.AppConfig.Intervals()
	require.NoError(t, err)

	c := &clock{now: time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC)}
	repo := repository.NewProblemRepository(db)
	feed := repository.NewFeed(repo, nil)
	repo.OnCommit(feed.Publish)

	stores := services.NewStoreRegistry(repo, feed, services.NewDueScheduler(intervals), services.StoreOptions{
		Now:        c.Now,
		UndoWindow: config.AppConfig.UndoWindow,
	})
	t.Cleanup(stores.Close)

	users := repository.NewUserRepository(db)
	hub := services.NewAuthStateHub(func(ctx context.Context, id string) (*models.User, error) {
		u, err := users.FindByID(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return u, err
	})
	hub.OnChange(stores.HandleAuthState)
	handlers.Setup(stores, hub, services.LogMailer{})

	return &app{router: routes.NewRouter(nil), clock: c, repo: repo}
}

func (a *app) request(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var out map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w.Code, out
}
