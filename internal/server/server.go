package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dukerupert/pagequest/internal/config"
	"github.com/dukerupert/pagequest/internal/handler"
	"github.com/dukerupert/pagequest/internal/middleware"
	"github.com/dukerupert/pagequest/internal/reading"
	"github.com/dukerupert/pagequest/internal/store"
	ws "github.com/dukerupert/pagequest/internal/websocket"
)

// loginRateLimit caps credential attempts per IP.
const loginRateLimit = 10

type Server struct {
	db     *sql.DB
	stores *store.Stores
	svc    *reading.Service
	hub    *ws.Hub

	authH         *handler.AuthHandler
	userH         *handler.UserHandler
	bookH         *handler.BookHandler
	sessionH      *handler.SessionHandler
	quizH         *handler.QuizHandler
	achievementH  *handler.AchievementHandler
	rewardH       *handler.RewardHandler
	notificationH *handler.NotificationHandler
	deviceH       *handler.DeviceHandler

	rateLimiter     *middleware.RateLimiter
	deviceRateLimit int
	logger          *slog.Logger
}

func New(db *sql.DB, cfg config.Config, logger *slog.Logger) *Server {
	stores := store.New(db)
	hub := ws.NewHub(logger.With("component", "websocket"))

	svcCfg := reading.DefaultConfig()
	svcCfg.DefaultLocation = cfg.Location()
	svcCfg.DeviceStreakBonus = cfg.Engine.DeviceStreakBonus
	svcCfg.QuizPassPoints = cfg.Engine.QuizPassPoints
	svcCfg.QuizCooldown = cfg.Engine.QuizCooldown.Duration
	svc := reading.NewService(db, svcCfg, logger)

	return &Server{
		db:              db,
		stores:          stores,
		svc:             svc,
		hub:             hub,
		authH:           handler.NewAuthHandler(stores.Users, stores.Sessions, logger.With("component", "auth")),
		userH:           handler.NewUserHandler(stores, logger.With("component", "user")),
		bookH:           handler.NewBookHandler(stores, logger.With("component", "book")),
		sessionH:        handler.NewSessionHandler(svc, logger.With("component", "session")),
		quizH:           handler.NewQuizHandler(svc, logger.With("component", "quiz")),
		achievementH:    handler.NewAchievementHandler(stores, logger.With("component", "achievement")),
		rewardH:         handler.NewRewardHandler(stores, svc, logger.With("component", "reward")),
		notificationH:   handler.NewNotificationHandler(stores.Notifications, logger.With("component", "notification")),
		deviceH:         handler.NewDeviceHandler(stores, svc, hub, logger.With("component", "device")),
		rateLimiter:     middleware.NewRateLimiter(),
		deviceRateLimit: cfg.Device.RateLimitPerMinute,
		logger:          logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.stores.Sessions
}

func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Service exposes the accounting service, mainly for tests.
func (s *Server) Service() *reading.Service {
	return s.svc
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// Public routes (no auth required)
	mux.HandleFunc("POST /register", s.rateLimitedHandler(s.authH.Register))
	mux.HandleFunc("POST /login", s.rateLimitedHandler(s.authH.Login))
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Device routes authenticate with a bearer token
	device := func(h http.Handler) http.Handler {
		limited := middleware.RateLimit(s.rateLimiter, middleware.CallerKey, s.deviceRateLimit, time.Minute)(h)
		return middleware.RequireDevice(s.stores.DeviceTokens, s.stores.Users)(limited)
	}
	mux.Handle("POST /api/device/events", device(http.HandlerFunc(s.deviceH.Event)))
	mux.Handle("GET /api/device/stream", device(ws.HandleStream(s.hub, s.svc, s.logger.With("component", "device_stream"))))

	s.registerProtectedRoutes(mux)

	var h http.Handler = middleware.Metrics(mux)
	h = middleware.RequestLogger(s.logger.With("component", "http"))(h)
	h = chimw.Recoverer(h)
	return chimw.RequestID(h)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check", "error", err)
		status = "unavailable"
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, loginRateLimit, time.Minute)(h)
	return rl.ServeHTTP
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	requireAuth := middleware.RequireAuth(s.stores.Sessions, s.stores.Users)
	authed := func(h http.HandlerFunc) http.Handler {
		return requireAuth(h)
	}
	parent := func(h http.HandlerFunc) http.Handler {
		return requireAuth(middleware.RequireParent(h))
	}
	child := func(h http.HandlerFunc) http.Handler {
		return requireAuth(middleware.RequireChild(h))
	}

	mux.Handle("POST /logout", authed(s.authH.Logout))
	mux.Handle("GET /api/me", authed(s.userH.Me))

	mux.Handle("GET /api/children", parent(s.userH.ListChildren))
	mux.Handle("POST /api/children", parent(s.userH.CreateChild))

	// Books
	mux.Handle("GET /api/books", authed(s.bookH.List))
	mux.Handle("POST /api/books", child(s.bookH.Create))
	mux.Handle("POST /api/books/{id}/approve", parent(s.bookH.Approve))
	mux.Handle("POST /api/books/{id}/reject", parent(s.bookH.Reject))

	// Quiz gate
	mux.Handle("GET /api/books/{id}/quiz", child(s.quizH.Status))
	mux.Handle("POST /api/books/{id}/quiz", child(s.quizH.Submit))

	// Reading sessions
	mux.Handle("GET /api/sessions", authed(s.sessionH.List))
	mux.Handle("POST /api/sessions", authed(s.sessionH.Create))
	mux.Handle("DELETE /api/sessions/{id}", authed(s.sessionH.Delete))

	mux.Handle("GET /api/achievements", authed(s.achievementH.List))

	// Rewards
	mux.Handle("GET /api/rewards", authed(s.rewardH.List))
	mux.Handle("POST /api/rewards", parent(s.rewardH.Create))
	mux.Handle("DELETE /api/rewards/{id}", parent(s.rewardH.Delete))
	mux.Handle("POST /api/rewards/{id}/redeem", child(s.rewardH.Redeem))
	mux.Handle("GET /api/user-rewards", authed(s.rewardH.ListUserRewards))
	mux.Handle("POST /api/user-rewards/{id}/complete", parent(s.rewardH.Complete))

	mux.Handle("GET /api/notifications", authed(s.notificationH.List))
	mux.Handle("POST /api/notifications/{id}/read", authed(s.notificationH.MarkRead))

	// Device tokens
	mux.Handle("GET /api/device-tokens", parent(s.deviceH.ListTokens))
	mux.Handle("POST /api/device-tokens", parent(s.deviceH.IssueToken))
	mux.Handle("DELETE /api/device-tokens/{id}", parent(s.deviceH.RevokeToken))
}
