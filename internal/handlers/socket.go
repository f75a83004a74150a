package handlers

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/VeerPalSingh-0000/Revision-Mania/internal/config"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/database"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/middleware"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/models"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/services"
	apperrors "github.com/VeerPalSingh-0000/Revision-Mania/pkg/errors"
	"github.com/VeerPalSingh-0000/Revision-Mania/pkg/logger"
	"github.com/VeerPalSingh-0000/Revision-Mania/pkg/utils"
	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"
)

const socketOpTimeout = 10 * time.Second

// socketSession is the per-connection state kept in the socket context.
type socketSession struct {
	userID string
	jti    string
	loc    *time.Location
	store  *services.ProblemStore

	mu       sync.Mutex
	closers  []func()
	released bool
}

func (s *socketSession) onClose(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		fn()
		return
	}
	s.closers = append(s.closers, fn)
}

// release runs every unsubscribe exactly once.
func (s *socketSession) release() {
	s.mu.Lock()
	closers := s.closers
	s.closers = nil
	s.released = true
	s.mu.Unlock()

	for _, fn := range closers {
		fn()
	}
}

// MutationResult is the reply to every mutating socket event.
type MutationResult struct {
	Event   string         `json:"event"`
	Success bool           `json:"success"`
	Kind    apperrors.Kind `json:"kind,omitempty"`
	Error   string         `json:"error,omitempty"`
	ID      string         `json:"id,omitempty"`
}

func mutationResult(event, id string, err error) MutationResult {
	if err == nil {
		return MutationResult{Event: event, Success: true, ID: id}
	}
	appErr := apperrors.As(err)
	return MutationResult{Event: event, Kind: appErr.Kind, Error: appErr.Message, ID: id}
}

func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range middleware.AllowedOrigins(config.AppConfig) {
		if origin == allowed {
			return true
		}
	}
	return false
}

// authenticateSocket checks the connection's ?token= and ?tz= the way the
// HTTP API checks its header and query.
func authenticateSocket(query url.Values) (*utils.Claims, *time.Location, error) {
	token := query.Get("token")
	if token == "" {
		return nil, nil, apperrors.Unauthorized("Authentication required")
	}
	claims, err := utils.ValidateToken(token)
	if err != nil || database.IsTokenBlacklisted(claims.GetJTI()) {
		return nil, nil, apperrors.Unauthorized("Invalid token")
	}
	loc, err := parseLocation(query.Get("tz"))
	if err != nil {
		return nil, nil, err
	}
	return claims, loc, nil
}

func sessionOf(s socketio.Conn) *socketSession {
	sess, _ := s.Context().(*socketSession)
	return sess
}

func InitSocketServer() *socketio.Server {
	log := logger.With("socket")

	server := socketio.NewServer(&engineio.Options{
		Transports: []transport.Transport{
			&websocket.Transport{CheckOrigin: checkOrigin},
			&polling.Transport{CheckOrigin: checkOrigin},
		},
	})

	server.OnConnect("/", func(s socketio.Conn) error {
		u := s.URL()
		claims, loc, err := authenticateSocket(u.Query())
		if err != nil {
			log.Warn().Err(err).Str("socket_id", s.ID()).Msg("Socket rejected")
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), socketOpTimeout)
		defer cancel()

		store, releaseStore, err := Stores.Acquire(ctx, claims.UserID)
		if err != nil {
			log.Error().Err(err).Str("user_id", claims.UserID).Msg("Socket rejected: store unavailable")
			return err
		}

		sess := &socketSession{userID: claims.UserID, jti: claims.GetJTI(), loc: loc, store: store}
		s.SetContext(sess)
		s.Join(claims.UserID)

		// Only a sign-out of this connection's token closes it.
		sess.onClose(AuthHub.Subscribe(ctx, claims.UserID, sess.jti, func(u *models.User) {
			s.Emit("auth_state", u)
			if u == nil {
				sess.release()
				s.Close()
			}
		}))
		sess.onClose(store.Subscribe(func([]models.Problem) {
			s.Emit("overview", store.Overview(sess.loc))
		}))
		sess.onClose(releaseStore)

		log.Info().Str("socket_id", s.ID()).Str("user_id", claims.UserID).Msg("Socket authenticated")
		return nil
	})

	onMutation := func(event string, run func(ctx context.Context, sess *socketSession, arg string) (string, error)) func(socketio.Conn, string) {
		return func(s socketio.Conn, arg string) {
			sess := sessionOf(s)
			if sess == nil {
				return
			}
			if !middleware.MutationLimiter.Allow(sess.userID) {
				s.Emit("mutation_result", mutationResult(event, "", apperrors.ErrRateLimit))
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), socketOpTimeout)
			defer cancel()

			id, err := run(ctx, sess, arg)
			s.Emit("mutation_result", mutationResult(event, id, err))
		}
	}

	server.OnEvent("/", "add_problem", func(s socketio.Conn, input services.ProblemInput) {
		onMutation("add_problem", func(ctx context.Context, sess *socketSession, _ string) (string, error) {
			p, err := sess.store.Add(ctx, input)
			return p.ID, err
		})(s, "")
	})

	server.OnEvent("/", "delete_problem", onMutation("delete_problem", func(ctx context.Context, sess *socketSession, id string) (string, error) {
		return id, sess.store.Delete(ctx, id)
	}))

	server.OnEvent("/", "solve_again", onMutation("solve_again", func(ctx context.Context, sess *socketSession, id string) (string, error) {
		rev, err := sess.store.SolveAgain(ctx, id)
		return rev.ID, err
	}))

	server.OnEvent("/", "undo_revision", onMutation("undo_revision", func(ctx context.Context, sess *socketSession, id string) (string, error) {
		return id, sess.store.UndoRevision(ctx, id)
	}))

	server.OnEvent("/", "refresh", func(s socketio.Conn) {
		sess := sessionOf(s)
		if sess == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), socketOpTimeout)
		defer cancel()
		s.Emit("mutation_result", mutationResult("refresh", "", sess.store.Refresh(ctx)))
	})

	server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		if sess := sessionOf(s); sess != nil {
			sess.release()
			log.Debug().Str("socket_id", s.ID()).Str("user_id", sess.userID).Str("reason", reason).Msg("Socket closed")
		}
	})

	server.OnError("/", func(s socketio.Conn, e error) {
		log.Warn().Err(e).Msg("Socket error")
	})

	go func() {
		if err := server.Serve(); err != nil {
			log.Error().Err(err).Msg("Socket server stopped")
		}
	}()
	return server
}

// Gin Handler to wrap Socket.io
func SocketHandler(server *socketio.Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		server.ServeHTTP(c.Writer, c.Request)
	}
}
