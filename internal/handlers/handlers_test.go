package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/VeerPalSingh-0000/Revision-Mania/internal/config"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/database"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/middleware"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/models"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/repository"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

type harness struct {
	router *gin.Engine
	clock  *testClock
	mailer *fakeMailer
	stores *services.StoreRegistry
}

// setupHandlers wires the package globals against a fresh in-memory database.
func setupHandlers(t *testing.T) *harness {
	gin.SetMode(gin.TestMode)

	config.AppConfig = &config.Config{
		JWTSecret:   "test_secret_key_12345",
		FrontendURL: "http://localhost:5173",
		Timezone:    "UTC",
		UndoWindow:  5 * time.Minute,
	}

	name := strings.NewReplacer("/", "_", " ", "_", "=", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Problem{}))
	database.DB = db

	clock := &testClock{now: time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC)}
	repo := repository.NewProblemRepository(db)
	feed := repository.NewFeed(repo, nil)
	repo.OnCommit(feed.Publish)

	stores := services.NewStoreRegistry(repo, feed, services.NewDueScheduler([]int{1, 3, 7, 15, 30}), services.StoreOptions{
		Now:        clock.Now,
		UndoWindow: config.AppConfig.UndoWindow,
	})
	users := repository.NewUserRepository(db)
	hub := services.NewAuthStateHub(func(ctx context.Context, id string) (*models.User, error) {
		u, err := users.FindByID(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return u, err
	})
	hub.OnChange(stores.HandleAuthState)
	mailer := &fakeMailer{}
	Setup(stores, hub, mailer)
	t.Cleanup(stores.Close)

	r := gin.New()
	r.Use(middleware.ErrorHandlerMiddleware())
	auth := r.Group("/api/auth")
	auth.POST("/register", Register)
	auth.POST("/login", Login)
	auth.POST("/logout", middleware.AuthMiddleware(), Logout)
	auth.GET("/me", middleware.AuthMiddleware(), Me)
	auth.POST("/forgot-password", ForgotPassword)
	auth.POST("/reset-password", ResetPassword)

	problems := r.Group("/api/problems", middleware.AuthMiddleware())
	problems.GET("", ListProblems)
	problems.GET("/overview", GetOverview)
	problems.GET("/due", GetDueProblems)
	problems.GET("/stats", GetStats)
	problems.GET("/archive", GetArchive)
	problems.POST("", CreateProblem)
	problems.POST("/refresh", RefreshProblems)
	problems.GET("/:id", GetProblem)
	problems.DELETE("/:id", DeleteProblem)
	problems.POST("/:id/solve-again", SolveAgain)
	problems.POST("/:id/undo", UndoRevision)

	return &harness{router: r, clock: clock, mailer: mailer, stores: stores}
}

func (h *harness) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

// register creates an account and returns its token and id.
func (h *harness) register(t *testing.T, email string) (string, string) {
	t.Helper()
	w, out := h.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"displayName": "Tester",
		"email":       email,
		"password":    "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	user := out["user"].(map[string]interface{})
	return out["token"].(string), user["id"].(string)
}
