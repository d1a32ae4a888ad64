// Package http is the JSON API over the collection stores: expense,
// category and budget CRUD, derived statistics, preferences, backup
// import/export and sync control.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"tally/internal/amqp"
	"tally/internal/cache"
	"tally/internal/log"
	"tally/internal/middleware/ratelimit"
	"tally/internal/middleware/security"
	"tally/internal/middleware/trace"
	"tally/internal/storage"
	"tally/internal/store"
	tallysync "tally/internal/sync"
)

// ChangePublisher announces local mutations on the change bus. Nil means
// no bus is configured and the server pushes through the bridge directly.
type ChangePublisher interface {
	PublishChange(ctx context.Context, msg *amqp.ChangeMessage) error
}

// Deps carries everything the server serves from. Bridge and Publisher
// are optional.
type Deps struct {
	Registry  *store.Registry
	Views     *store.Views
	Local     *storage.Store
	Bridge    *tallysync.Bridge
	Publisher ChangePublisher

	// UserID is the identity attached to ownership conversions.
	UserID string

	// Logger is attached to request contexts; nil gets a default
	// http-component logger.
	Logger *log.Logger

	StatsCacheSize int
	StatsCacheTTL  time.Duration
}

type Server struct {
	http.Server

	reg       *store.Registry
	views     *store.Views
	local     *storage.Store
	bridge    *tallysync.Bridge
	publisher ChangePublisher
	userID    string

	detector *security.Detector
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware

	// statsCache holds marshaled statistics payloads keyed by the store
	// versions they were computed from.
	statsCache   *cache.LRUCache[[]byte]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	cacheSize := deps.StatsCacheSize
	if cacheSize <= 0 {
		cacheSize = 128
	}
	cacheTTL := deps.StatsCacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}

	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentHTTP})
	}

	detector := security.NewDetector()
	s := &Server{
		reg:          deps.Registry,
		views:        deps.Views,
		local:        deps.Local,
		bridge:       deps.Bridge,
		publisher:    deps.Publisher,
		userID:       deps.UserID,
		detector:     detector,
		limiter:      ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		tracer:       trace.NewMiddleware(detector.ExtractClientIP),
		statsCache:   cache.NewLRUCache[[]byte](cacheSize, cacheTTL),
		cacheManager: cache.NewManager(),
	}
	s.cacheManager.Register(s.statsCache)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /api/metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)
	mux.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	mux.HandleFunc("GET /api/expenses/{id}", s.handleGetExpense)
	mux.HandleFunc("PUT /api/expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("GET /api/categories/{id}", s.handleGetCategory)
	mux.HandleFunc("PUT /api/categories/{id}", s.handleUpdateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("GET /api/budgets", s.handleListBudgets)
	mux.HandleFunc("POST /api/budgets", s.handleCreateBudget)
	mux.HandleFunc("GET /api/budgets/{id}", s.handleGetBudget)
	mux.HandleFunc("PUT /api/budgets/{id}", s.handleUpdateBudget)
	mux.HandleFunc("DELETE /api/budgets/{id}", s.handleDeleteBudget)
	mux.HandleFunc("GET /api/budgets/progress", s.handleBudgetProgress)
	mux.HandleFunc("GET /api/budgets/alerts", s.handleBudgetAlerts)

	mux.HandleFunc("GET /api/stats/today", s.handleStatsToday)
	mux.HandleFunc("GET /api/stats/week", s.handleStatsWeek)
	mux.HandleFunc("GET /api/stats/month", s.handleStatsMonth)
	mux.HandleFunc("GET /api/stats/categories", s.handleStatsCategories)

	mux.HandleFunc("GET /api/preferences", s.handleGetPreferences)
	mux.HandleFunc("PUT /api/preferences", s.handleUpdatePreferences)

	mux.HandleFunc("GET /api/export/json", s.handleExportJSON)
	mux.HandleFunc("GET /api/export/csv", s.handleExportCSV)
	mux.HandleFunc("POST /api/import", s.handleImport)

	mux.HandleFunc("POST /api/sync/start", s.handleSyncStart)
	mux.HandleFunc("POST /api/sync/stop", s.handleSyncStop)
	mux.HandleFunc("GET /api/sync/status", s.handleSyncStatus)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limited := s.limiter.Middleware(detector.ExtractClientIP, nil)

	var handler http.Handler = mux
	handler = s.guard(handler)
	handler = limited(handler)
	handler = headers.Middleware(handler)
	handler = s.tracer.Middleware(handler)
	handler = log.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	s.cacheManager.StartCleanup(10 * time.Minute)
	return s
}

// guard rejects requests the detector flags before they reach a handler.
func (s *Server) guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			slog.WarnContext(r.Context(), "Suspicious request rejected",
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldClientIP, s.detector.ExtractClientIP(r))
			respondError(w, http.StatusNotFound, "not found")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown stops the server and its background goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// notifyChange fans a mutation out to the change bus, or straight through
// the bridge when no bus is configured. Both paths are asynchronous and
// best-effort; the local write already succeeded.
func (s *Server) notifyChange(collection, op, id string) {
	if s.publisher != nil {
		msg := amqp.NewChangeMessage(collection, op, id)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.publisher.PublishChange(ctx, msg); err != nil {
				slog.Warn("Change publish failed",
					log.FieldCollection, collection,
					log.FieldOperation, op,
					log.FieldRecordID, id,
					log.FieldError, err)
			}
		}()
		return
	}
	if s.bridge == nil {
		return
	}
	go s.pushDirect(collection, op, id)
}

func (s *Server) pushDirect(collection, op, id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var err error
	switch {
	case op == amqp.OpDelete:
		switch collection {
		case amqp.CollectionExpenses:
			s.bridge.DeleteExpense(ctx, id)
		case amqp.CollectionCategories:
			s.bridge.DeleteCategory(ctx, id)
		case amqp.CollectionBudgets:
			s.bridge.DeleteBudget(ctx, id)
		}
	case collection == amqp.CollectionExpenses:
		if e, ok := s.reg.Expenses.Get(id); ok {
			err = s.bridge.PushExpense(ctx, e)
		}
	case collection == amqp.CollectionCategories:
		if c, ok := s.reg.Categories.Get(id); ok {
			err = s.bridge.PushCategory(ctx, c)
		}
	case collection == amqp.CollectionBudgets:
		if b, ok := s.reg.Budgets.Get(id); ok {
			err = s.bridge.PushBudget(ctx, b)
		}
	}
	if err != nil {
		slog.Warn("Remote push failed",
			log.FieldCollection, collection,
			log.FieldRecordID, id,
			log.FieldError, err)
	}
}

// statsKey builds a cache key from the view inputs so a cached payload is
// reused only while the underlying stores are unchanged.
func (s *Server) statsKey(name string, versions ...uint64) string {
	key := name
	for _, v := range versions {
		key += fmt.Sprintf("|%d", v)
	}
	return key + "|" + time.Now().UTC().Format("2006-01-02")
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	// the store degrades to in-memory defaults when the database is
	// unavailable, so readiness only means the process is serving
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	traceMetrics := s.tracer.GetMetrics()
	respondJSON(w, http.StatusOK, map[string]any{
		"totalRequests":      traceMetrics.TotalRequests,
		"lastResponseTimeMs": traceMetrics.LastResponseTimeMs,
		"suspiciousRequests": s.detector.GetMetrics().SuspiciousRequests,
		"rateLimitClients":   s.limiter.ActiveClients(),
		"statsCacheEntries":  s.statsCache.Size(),
	})
}
