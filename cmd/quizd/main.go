package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	api "github.com/topaz-quiz/quizd/internal/api/http"
	"github.com/topaz-quiz/quizd/internal/config"
	"github.com/topaz-quiz/quizd/internal/db"
	"github.com/topaz-quiz/quizd/internal/nav"
	"github.com/topaz-quiz/quizd/internal/progress"
	"github.com/topaz-quiz/quizd/internal/quiz"
	"github.com/topaz-quiz/quizd/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		log.Fatalf("store backend: %v", err)
	}
	adapter := store.NewAdapter(backend)

	var src quiz.Source
	if cfg.QuizBaseURL != "" {
		src = quiz.NewHTTPSource(cfg.QuizBaseURL, nil)
	} else {
		src = quiz.NewDirSource(cfg.QuizDir)
	}
	loader := quiz.NewLoader(src)

	hub := progress.NewHub()
	svc := quiz.NewService(loader, adapter, quiz.WithProgressSink(hub))
	tracker := nav.NewTracker(adapter)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/quizzes/{quizFile}", func(qr chi.Router) {
		qr.Post("/open", api.OpenQuizHandler(svc))
		qr.Get("/session", api.GetSessionHandler(svc))
		qr.Post("/answers/choice", api.SubmitChoiceHandler(svc))
		qr.Post("/answers/lab", api.SubmitLabHandler(svc))
		qr.Post("/retry", api.RetryHandler(svc))
		qr.Post("/reshuffle", api.ReshuffleHandler(svc))
		qr.Get("/progress/ws", api.ProgressWSHandler(hub))
	})
	r.Get("/nav", api.GetNavHandler(tracker))
	r.Put("/nav", api.SetNavHandler(tracker))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (env=%s, store=%s)", cfg.HTTPAddr, cfg.Env, cfg.StoreDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}

func openBackend(ctx context.Context, cfg *config.Config) (store.Backend, error) {
	switch cfg.StoreDriver {
	case "memory":
		return store.NewMemoryBackend(), nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			// Degraded mode: the adapter treats every call as a miss, the
			// quiz simply behaves as freshly created.
			log.Printf("redis unreachable, continuing without persistence: %v", err)
		}
		return store.NewRedisBackend(client, cfg.RedisTTL), nil
	case "sqlite", "postgres":
		dbh, err := db.Open(ctx, db.Driver(cfg.StoreDriver), cfg.DBDSN)
		if err != nil {
			return nil, err
		}
		return store.NewSQLBackend(dbh), nil
	default:
		return store.NewMemoryBackend(), nil
	}
}
