package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ginGzip "github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	constants "whatbeats/internal/constants"
	"whatbeats/internal/game"
	"whatbeats/internal/handlers"
	"whatbeats/internal/oracle"
	"whatbeats/internal/store"
	util "whatbeats/internal/util"
)

func main() {
	_ = godotenv.Load()

	isProduction := os.Getenv("GIN_MODE") == "release" || os.Getenv("ENV") == "production"
	util.LogInfo("Starting whatbeats in %s mode", map[bool]string{true: "production", false: "development"}[isProduction])

	sessions := store.NewMemorySessionStore(util.GetEnvDuration("SESSION_TTL", constants.DefaultSessionTTL))
	verdicts := store.NewMemoryVerdictCache(util.GetEnvDuration("VERDICT_CACHE_TTL", constants.DefaultVerdictCacheTTL))

	db, counters := openCounterStore()

	judge := buildJudge()
	policy := oracle.DefaultRetryPolicy()
	policy.MaxAttempts = util.GetEnvInt("ORACLE_MAX_ATTEMPTS", constants.DefaultOracleAttempts)
	adapter := oracle.NewAdapter(judge, verdicts, policy,
		util.GetEnvDuration("ORACLE_DEADLINE", constants.DefaultOracleDeadline))

	// The engine takes the counter store through an interface; hand it a
	// plain nil when counters are disabled so the nil check inside works.
	var counter game.Counter
	if counters != nil {
		counter = counters
	}
	engine := game.NewEngine(sessions, counter, adapter,
		util.GetEnvDuration("TURN_TIMEOUT", constants.DefaultTurnTimeout))

	app := &App{
		IsProduction:   isProduction,
		StartTime:      time.Now(),
		RateLimitRPS:   util.GetEnvInt("RATE_LIMIT_RPS", 5),
		RateLimitBurst: util.GetEnvInt("RATE_LIMIT_BURST", 10),
		RateLimiterTTL: util.GetEnvDuration("RATE_LIMITER_TTL", time.Hour),
		LimiterMap:     make(map[string]*RateLimiterWithTime),
	}

	h := &handlers.Handler{
		Engine:    engine,
		Sessions:  sessions,
		Counters:  counters,
		StartTime: app.StartTime,
	}

	router := gin.Default()
	router.Use(requestIDMiddleware())
	router.Use(securityHeadersMiddleware())
	router.Use(noStoreMiddleware())
	router.Use(ginGzip.Gzip(ginGzip.DefaultCompression))

	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		util.LogWarn("Failed to set trusted proxies: %v", err)
	}

	router.GET(constants.RouteRoot, h.Root)
	router.POST(constants.RouteGuess, app.rateLimitMiddleware(), h.Guess)
	router.GET(constants.RouteHistory, h.History)
	router.GET(constants.RouteHealthz, h.Healthz)

	sessions.StartCleanup(10 * time.Minute)
	verdicts.StartCleanup(time.Hour)
	app.startLimiterCleanup()

	app.startServer(router)

	sessions.Close()
	if db != nil {
		if err := db.Close(); err != nil {
			util.LogWarn("Closing counter database: %v", err)
		}
	}
}

// openCounterStore connects the global counter backend. The counter is
// best-effort by contract, but a configured-yet-unreachable database is a
// deployment error and fails startup, matching the session-store policy.
func openCounterStore() (*sql.DB, *store.GlobalCounterStore) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		util.LogWarn("DATABASE_URL not set, running without global guess counts")
		return nil, nil
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		util.LogFatal("Opening counter database: %v", err)
	}
	db.SetMaxOpenConns(util.GetEnvInt("DB_MAX_OPEN_CONNS", 10))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		util.LogFatal("Counter database unreachable: %v", err)
	}

	counters := store.NewGlobalCounterStore(db)
	if err := counters.EnsureSchema(ctx); err != nil {
		util.LogFatal("Counter schema setup failed: %v", err)
	}
	util.LogInfo("Connected to counter database, schema ready")
	return db, counters
}

func buildJudge() oracle.Judge {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		util.LogWarn("GEMINI_API_KEY not set, all verdicts will be NO")
		return oracle.DenyAllJudge{}
	}

	judge, err := oracle.NewGeminiJudge(context.Background(), apiKey,
		util.GetEnvStr("GEMINI_MODEL", "gemini-1.5-flash"))
	if err != nil {
		util.LogFatal("Failed to configure Gemini judge: %v", err)
	}
	util.LogInfo("Gemini judge configured")
	return judge
}

func (app *App) startLimiterCleanup() {
	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			app.cleanupStaleRateLimiters()
		}
	}()
}

func (app *App) startServer(router *gin.Engine) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
		<-sigint
		util.LogInfo("Shutdown signal received, shutting down server gracefully...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			util.LogWarn("HTTP server Shutdown: %v", err)
		}
		close(idleConnsClosed)
	}()

	util.LogInfo("Server starting on http://localhost:%s", port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		util.LogFatal("Server failed to start: %v", err)
	}
	<-idleConnsClosed
	util.LogInfo("Server shutdown complete")
}
