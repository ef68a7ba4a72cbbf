package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/manhtruong03/real-time-quiz-sub000/internal/app"
	"github.com/manhtruong03/real-time-quiz-sub000/internal/config"
	"github.com/manhtruong03/real-time-quiz-sub000/internal/domain"
	"github.com/manhtruong03/real-time-quiz-sub000/internal/infra/memory"
	pgloader "github.com/manhtruong03/real-time-quiz-sub000/internal/infra/postgres"
	redisinfra "github.com/manhtruong03/real-time-quiz-sub000/internal/infra/redis"
	transport "github.com/manhtruong03/real-time-quiz-sub000/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the game coordinator",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	sessionTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	if pool != nil {
		loader = pgloader.NewQuizLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisinfra.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var store app.SessionRepository
	if redisClient != nil {
		store = redisinfra.NewSessionStore(redisClient, sessionTTL)
	} else {
		store = memory.NewSessionStore()
	}
	coordinator := app.NewCoordinator(store, quizRepo, cfg.GameOptions())
	wsHandler := transport.NewWSHandler(coordinator)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/sessions", wsHandler.CreateSession)
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting game coordinator on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuizzes provides demo quiz definitions for running without Postgres.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:    "quiz-1",
			Title: "General Knowledge",
			Blocks: []domain.Block{
				{
					Type:  domain.BlockQuiz,
					Title: "What is 2 + 2?",
					Choices: []domain.Choice{
						{Answer: "3"},
						{Answer: "4", Correct: true},
						{Answer: "5"},
					},
					TimeLimitMs:      20000,
					PointsMultiplier: 1,
				},
				{
					Type:  domain.BlockJumble,
					Title: "Order the planets from the sun",
					Choices: []domain.Choice{
						{Answer: "Mercury"},
						{Answer: "Venus"},
						{Answer: "Earth"},
						{Answer: "Mars"},
					},
					TimeLimitMs:      30000,
					PointsMultiplier: 1,
				},
				{
					Type:        domain.BlockContent,
					Title:       "Halfway there!",
					TimeLimitMs: 0,
				},
				{
					Type:  domain.BlockOpenEnded,
					Title: "What is the capital of France?",
					Choices: []domain.Choice{
						{Answer: "Paris", Correct: true},
					},
					TimeLimitMs:      20000,
					PointsMultiplier: 2,
				},
				{
					Type:  domain.BlockSurvey,
					Title: "Did you enjoy this quiz?",
					Choices: []domain.Choice{
						{Answer: "Yes"},
						{Answer: "No"},
					},
					TimeLimitMs: 10000,
				},
			},
		},
	}
}
