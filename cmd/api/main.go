// cmd/api/main.go
// Main entry point for the matching & discovery engine
// This file bootstraps all components and starts the server

package main

import (
    "context"
    "encoding/json"
    "fmt"
    "log"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/go-redis/redis/v8"
    "github.com/gorilla/mux"
    "github.com/jmoiron/sqlx"
    "github.com/joho/godotenv"
    "github.com/prometheus/client_golang/prometheus/promhttp"

    "github.com/evinjohnn/tinder-clone-sub000/internal/auth"
    "github.com/evinjohnn/tinder-clone-sub000/internal/common/database"
    "github.com/evinjohnn/tinder-clone-sub000/internal/config"
    "github.com/evinjohnn/tinder-clone-sub000/internal/match"
)

var startTime = time.Now()

func main() {
    log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
    log.Println("Starting matching & discovery engine")

    // 1. Load environment variables
    if err := godotenv.Load(); err != nil {
        log.Printf("No .env file found (%v), using environment variables", err)
    }

    // 2. Load and validate configuration
    cfg := config.Load()
    if err := cfg.Validate(); err != nil {
        log.Fatal("Configuration validation failed: ", err)
    }

    // 3. Connect to PostgreSQL
    db, err := database.NewPostgresDB(cfg.DatabaseURL)
    if err != nil {
        log.Fatal("Failed to connect to PostgreSQL: ", err)
    }
    defer db.Close()
    log.Println("Connected to PostgreSQL")

    // 4. Connect to Redis (optional; standouts caching degrades without it)
    var redisClient *redis.Client
    if cfg.RedisURL != "" {
        redisClient, err = database.NewRedisClient(cfg.RedisURL)
        if err != nil {
            log.Printf("Redis unavailable (%v), continuing without cache", err)
            redisClient = nil
        } else {
            defer redisClient.Close()
            log.Println("Connected to Redis")
        }
    }

    // 5. Run database migrations
    if err := runMigrations(db, cfg.SuperLikesDaily); err != nil {
        log.Fatal("Failed to run migrations: ", err)
    }
    log.Println("Database migrations completed")

    // 6. Wire the matching engine
    repo := match.NewPostgresRepository(db)
    scorer := match.NewScorer()
    feedBuilder := match.NewFeedBuilder(repo, scorer, redisClient, cfg.FeedWorkers, cfg.DiversityRatio)

    hub := match.NewHub()
    go hub.Run()

    iceBreaker := match.NewHTTPIceBreaker(cfg.IceBreakerURL, cfg.IceBreakerTimeout)
    coordinator := match.NewCoordinator(repo, hub, iceBreaker)

    matchService := match.NewService(repo, scorer, feedBuilder, coordinator)
    matchHandler := match.NewHandler(matchService)

    // 7. Daily quota reset job
    schedulerCtx, stopScheduler := context.WithCancel(context.Background())
    defer stopScheduler()
    match.NewScheduler(matchService, cfg.QuotaResetHour).Start(schedulerCtx)

    // 8. Routes
    router := mux.NewRouter()
    router.HandleFunc("/health", healthCheck).Methods("GET")
    router.Handle("/metrics", promhttp.Handler()).Methods("GET")

    authMiddleware := auth.NewMiddleware(cfg.JWTSecret)
    match.RegisterRoutes(router, matchHandler, hub, authMiddleware)

    router.Use(loggingMiddleware)

    // 9. Start HTTP server
    srv := &http.Server{
        Addr:         fmt.Sprintf(":%s", cfg.Port),
        Handler:      router,
        ReadTimeout:  15 * time.Second,
        WriteTimeout: 15 * time.Second,
        IdleTimeout:  60 * time.Second,
    }

    go func() {
        log.Printf("Server listening on :%s (%s)", cfg.Port, cfg.Environment)
        if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
            log.Fatal("Failed to start server: ", err)
        }
    }()

    // Wait for interrupt signal
    quit := make(chan os.Signal, 1)
    signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
    <-quit

    log.Println("Shutdown signal received")
    stopScheduler()

    ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
    defer cancel()

    // Drain HTTP first so in-flight websocket upgrades still find a live hub.
    if err := srv.Shutdown(ctx); err != nil {
        log.Fatal("Server forced to shutdown: ", err)
    }
    hub.Shutdown()

    log.Println("Server exited gracefully")
}

// healthCheck returns server health status
func healthCheck(w http.ResponseWriter, r *http.Request) {
    response := map[string]interface{}{
        "status":    "healthy",
        "timestamp": time.Now().Format(time.RFC3339),
        "uptime":    time.Since(startTime).String(),
    }

    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(http.StatusOK)
    json.NewEncoder(w).Encode(response)
}

// loggingMiddleware logs all requests
func loggingMiddleware(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        start := time.Now()
        wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

        next.ServeHTTP(wrapped, r)

        log.Printf("%s %s [%d] %v", r.Method, r.RequestURI, wrapped.statusCode, time.Since(start))
    })
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
    http.ResponseWriter
    statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
    rw.statusCode = code
    rw.ResponseWriter.WriteHeader(code)
}

// runMigrations creates the engine's tables if they don't exist
func runMigrations(db *sqlx.DB, superLikesDaily int) error {
    migrations := []string{
        `CREATE TABLE IF NOT EXISTS users (
            id SERIAL PRIMARY KEY,
            display_name VARCHAR(100) NOT NULL,
            age INTEGER NOT NULL,
            gender VARCHAR(20) NOT NULL,
            gender_preference VARCHAR(20) NOT NULL DEFAULT 'everyone',
            profile_picture TEXT,
            location_lat DOUBLE PRECISION,
            location_lng DOUBLE PRECISION,
            interests TEXT[] NOT NULL DEFAULT '{}',
            drinking VARCHAR(30),
            smoking VARCHAR(30),
            workout VARCHAR(30),
            children VARCHAR(30),
            religion VARCHAR(30),
            politics VARCHAR(30),
            last_active TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
            credibility DOUBLE PRECISION NOT NULL DEFAULT 50,
            behavior_index DOUBLE PRECISION NOT NULL DEFAULT 50,
            is_premium BOOLEAN NOT NULL DEFAULT FALSE,
            min_age_pref INTEGER NOT NULL DEFAULT 18,
            max_age_pref INTEGER NOT NULL DEFAULT 100,
            max_distance_km DOUBLE PRECISION NOT NULL DEFAULT 100,
            super_likes_used INTEGER NOT NULL DEFAULT 0,
            super_likes_daily INTEGER NOT NULL DEFAULT ` + fmt.Sprintf("%d", superLikesDaily) + `,
            roses INTEGER NOT NULL DEFAULT 0,
            boost_credits INTEGER NOT NULL DEFAULT 0,
            likes_given INTEGER NOT NULL DEFAULT 0,
            likes_received INTEGER NOT NULL DEFAULT 0,
            created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`,

        `CREATE TABLE IF NOT EXISTS likes (
            id SERIAL PRIMARY KEY,
            sender_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            receiver_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            content_ref VARCHAR(120) NOT NULL,
            comment VARCHAR(280),
            kind VARCHAR(20) NOT NULL DEFAULT 'standard',
            status VARCHAR(20) NOT NULL DEFAULT 'pending',
            created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
            CONSTRAINT unique_like_pair UNIQUE (sender_id, receiver_id)
        )`,

        `CREATE TABLE IF NOT EXISTS matches (
            id SERIAL PRIMARY KEY,
            user1_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            user2_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            matched_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
            CONSTRAINT unique_match_pair UNIQUE (user1_id, user2_id),
            CONSTRAINT ordered_match_pair CHECK (user1_id < user2_id)
        )`,

        `CREATE TABLE IF NOT EXISTS blocks (
            user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            blocked_user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
            PRIMARY KEY (user_id, blocked_user_id)
        )`,

        `CREATE INDEX IF NOT EXISTS idx_users_last_active ON users(last_active DESC)`,
        `CREATE INDEX IF NOT EXISTS idx_users_standouts ON users(credibility DESC, behavior_index DESC) WHERE is_premium`,
        `CREATE INDEX IF NOT EXISTS idx_likes_receiver ON likes(receiver_id)`,
        `CREATE INDEX IF NOT EXISTS idx_matches_user2 ON matches(user2_id)`,
    }

    for i, migration := range migrations {
        if _, err := db.Exec(migration); err != nil {
            return fmt.Errorf("migration %d failed: %w", i+1, err)
        }
    }
    return nil
}
