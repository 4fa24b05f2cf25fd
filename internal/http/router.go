// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, caller identity, logging/redaction, panic
// recovery, metrics, CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → identity → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Voice routes are quota gated; the dev reset route exists only in development
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/growth-tools-backend/internal/config"
	"github.com/tbourn/growth-tools-backend/internal/domain"
	"github.com/tbourn/growth-tools-backend/internal/http/handlers"
	"github.com/tbourn/growth-tools-backend/internal/http/middleware"
	"github.com/tbourn/growth-tools-backend/internal/provider"
	"github.com/tbourn/growth-tools-backend/internal/quota"
	"github.com/tbourn/growth-tools-backend/internal/repo"
	"github.com/tbourn/growth-tools-backend/internal/services"
)

// DemoUserID identifies callers that send no X-User-ID header.
const DemoUserID = "demo-user"

// Body limits for the route groups. Transcription uploads get
// cfg.Provider.MaxAudioBytes plus room for the multipart envelope.
const (
	defaultBodyLimit    int64 = 1 << 20
	multipartOverhead   int64 = 64 << 10
	base64AudioOverhead       = 4.0 / 3.0
)

// chatRepoShim adapts the repository free functions to the services.ChatRepo
// interface expected by the ChatService. This keeps services decoupled from
// the concrete repo package while reusing existing functions.
type chatRepoShim struct{}

func (chatRepoShim) CreateChat(ctx context.Context, db *gorm.DB, userID, title string) (*domain.Chat, error) {
	return repo.CreateChat(ctx, db, userID, title)
}

func (chatRepoShim) GetChat(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Chat, error) {
	return repo.GetChat(ctx, db, id, userID)
}

func (chatRepoShim) UpdateChatTitle(ctx context.Context, db *gorm.DB, id, userID, title string) error {
	return repo.UpdateChatTitle(ctx, db, id, userID, title)
}

func (chatRepoShim) CountChats(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	return repo.CountChats(ctx, db, userID)
}

func (chatRepoShim) ListChatsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Chat, error) {
	return repo.ListChatsPage(ctx, db, userID, offset, limit)
}

func (chatRepoShim) DeleteChat(ctx context.Context, db *gorm.DB, id, userID string) error {
	return repo.DeleteChat(ctx, db, id, userID)
}

func (chatRepoShim) ChatsStats(ctx context.Context, db *gorm.DB, userID string) (int64, *time.Time, error) {
	return repo.ChatsStats(ctx, db, userID)
}

func (chatRepoShim) CreateMessage(ctx context.Context, db *gorm.DB, chatID, role, content string) (*domain.Message, error) {
	return repo.CreateMessage(ctx, db, chatID, role, content)
}

func (chatRepoShim) ListMessages(ctx context.Context, db *gorm.DB, chatID string, limit int) ([]domain.Message, error) {
	return repo.ListMessages(ctx, db, chatID, limit)
}

func (chatRepoShim) CountUserMessages(ctx context.Context, db *gorm.DB, chatID string) (int64, error) {
	return repo.CountUserMessages(ctx, db, chatID)
}

// idempotencyStore backs middleware.Idempotency with the idempotency table.
type idempotencyStore struct {
	db  *gorm.DB
	ttl time.Duration
}

func (s idempotencyStore) Lookup(ctx context.Context, userID, route, key string, now time.Time) (string, bool, error) {
	rec, err := repo.GetIdempotency(ctx, s.db, userID, route, key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return rec.Fingerprint, true, nil
}

func (s idempotencyStore) Remember(ctx context.Context, userID, route, key, fingerprint string, tokens int64, status int) error {
	_, err := repo.CreateIdempotency(ctx, s.db, userID, route, key, fingerprint, tokens, status, s.ttl)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	return err
}

// Deps are the long-lived collaborators built by main.
type Deps struct {
	DB *gorm.DB

	// Gate is the shared token quota. When nil a DB-backed gate with a
	// process-local cache is built from cfg.Quota.
	Gate *quota.Gate

	// Speaker and Transcriber are nil when the provider is not configured.
	Speaker     provider.Speaker
	Transcriber provider.Transcriber
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Identity: resolve the caller (X-User-ID, demo fallback)
//  4. Logger: structured logs with PII scrubbing
//  5. Recovery: capture panics after logger
//  6. Metrics
//  7. Rate limiter (per user/IP, replays included)
//  8. CORS, security headers and gzip
//
// Idempotency is attached to the quota-charged voice routes only.
func RegisterRoutes(r *gin.Engine, d Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Caller identity (demo only: no authentication)
	r.Use(middleware.Identity(DemoUserID))

	// 4) Structured logging with redaction
	r.Use(middleware.Logger(middleware.LogOptions{
		MaskHeaders: []string{"X-API-Key", "OpenAI-Organization"},
	}))

	// 5) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 8) CORS posture (safe defaults: allow all if none configured)
	r.Use(corsMiddleware(cfg.CORS)...)

	api := cfg.APIBasePath
	if api == "/" {
		api = ""
	}
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:        cfg.Security.EnableHSTS,
		HSTSMaxAge:        cfg.Security.HSTSMaxAge,
		NoStorePrefixes:   []string{api + "/usage", api + "/dev", api + "/growth-tools", api + "/needs-assessment"},
		CSPExemptPrefixes: []string{"/swagger"},
	}))

	// Audio is already compressed; keep JSON routes gzip-able.
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPathsRegexs([]string{
		`/(growth-tools|needs-assessment)/`,
		`^/metrics$`,
	})))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/gate/provider
	gate := d.Gate
	if gate == nil {
		gate = quota.NewGate(repo.NewUsageStore(d.DB), cfg.Quota.Limit, cfg.Quota.Window)
		gate.DevMode = cfg.IsDevelopment()
	}

	var votes services.VoteStore = services.NewMemoryVoteStore()
	if cfg.VoteStore == "db" {
		votes = &services.DBVoteStore{DB: d.DB}
	}

	voice := &services.VoiceService{
		Gate:        gate,
		Speaker:     d.Speaker,
		Transcriber: d.Transcriber,
		Rates: quota.Rates{
			TextTokensPer1KChars: cfg.Quota.TextTokensPer1KChars,
			AudioTokensPerMinute: cfg.Quota.AudioTokensPerMinute,
		},
		MaxSpeechChars: cfg.Provider.MaxSpeechChars,
		Profiles: map[string]services.VoiceProfile{
			services.ProfileGrowthTools:     voiceProfile(cfg.Provider.GrowthTools),
			services.ProfileNeedsAssessment: voiceProfile(cfg.Provider.NeedsAssessment),
		},
	}

	h := handlers.New(handlers.Deps{
		History:       services.NewChatService(d.DB, chatRepoShim{}),
		Votes:         services.NewVoteService(votes),
		Voice:         voice,
		Usage:         gate,
		MaxAudioBytes: cfg.Provider.MaxAudioBytes,
	})

	// Public API
	g := groupWithPrefix(r, cfg.APIBasePath)

	jsonRoutes := g.Group("", limitBody(defaultBodyLimit))
	{
		// History
		jsonRoutes.GET("/history", h.ListHistory)
		jsonRoutes.POST("/history", h.CreateChat)
		jsonRoutes.GET("/history/:id", h.GetChat)
		jsonRoutes.PATCH("/history/:id", h.UpdateChatTitle)
		jsonRoutes.DELETE("/history/:id", h.DeleteChat)
		jsonRoutes.POST("/history/:id/messages", h.AppendMessage)

		// Votes
		jsonRoutes.GET("/vote", h.ListVotes)
		jsonRoutes.PATCH("/vote", h.Vote)

		// Quota
		jsonRoutes.GET("/usage", h.GetUsage)
	}

	idem := middleware.Idempotency(
		middleware.IdempotencyOptions{MaxLen: 200},
		idempotencyStore{db: d.DB, ttl: cfg.IdempotencyTTL},
	)
	audioLimit := int64(float64(cfg.Provider.MaxAudioBytes)*base64AudioOverhead) + multipartOverhead
	for _, profile := range []string{services.ProfileGrowthTools, services.ProfileNeedsAssessment} {
		vg := g.Group("/"+profile, idem)
		vg.POST("/speak", limitBody(defaultBodyLimit), h.Speak(profile))
		vg.POST("/transcribe", limitBody(audioLimit), h.Transcribe(profile))
	}

	if cfg.IsDevelopment() {
		g.POST("/dev/reset-rate-limit", h.ResetRateLimit)
	}
}

func voiceProfile(p config.VoiceProfileConfig) services.VoiceProfile {
	return services.VoiceProfile{Voice: p.Voice, Language: p.Language, Prompt: p.Prompt}
}

// corsMiddleware returns the CORS handlers for the configured allowlist.
func corsMiddleware(cfg config.CORSConfig) []gin.HandlerFunc {
	allowHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderUserID, middleware.HeaderIdempotencyKey}
	exposeHeaders := []string{"X-Request-ID", "Content-Length", "Retry-After", handlers.HeaderTokensCharged, handlers.HeaderReplay}
	methods := []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}

	if len(cfg.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		return []gin.HandlerFunc{
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(cors.Config{
				AllowAllOrigins:  true,
				AllowMethods:     methods,
				AllowHeaders:     allowHeaders,
				ExposeHeaders:    exposeHeaders,
				AllowCredentials: false, // must remain false with AllowAllOrigins
				MaxAge:           12 * time.Hour,
			}),
		}
	}

	// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
	allowed := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		allowed[o] = struct{}{}
	}
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     methods,
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}),
	}
}

// limitBody returns a Gin middleware that caps the request body size to
// maxBytes using http.MaxBytesReader. Requests exceeding the cap will cause
// downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
