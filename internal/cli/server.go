package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quiz-game-service/internal/app"
	"quiz-game-service/internal/config"
	"quiz-game-service/internal/infra/memory"
	"quiz-game-service/internal/infra/postgres"
	redisinfra "quiz-game-service/internal/infra/redis"
	"quiz-game-service/internal/logging"
	"quiz-game-service/internal/metrics"
	transport "quiz-game-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz game server",
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
	log := logging.New("quiz-game-service", cfg.Log.Level)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	var results app.GameResultRepository = memory.NewResultStore()
	if cfg.Postgres.URL != "" {
		db := postgres.OpenBun(cfg.Postgres.URL)
		defer db.Close()
		if _, err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		loader = postgres.NewQuizLoader(pool)
		results = postgres.NewResultRepository(db)
		log.Info("using postgres quiz store")
	}

	redisTTL := config.TTLDuration(cfg.Redis.TTL, 2*time.Hour)
	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)

	deps := app.Dependencies{
		Results: results,
		Metrics: metrics.New(),
		Log:     log,
	}
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return err
		}
		deps.Games = redisinfra.NewGameRepository(client, redisTTL)
		deps.Answers = redisinfra.NewAnswerBuffer(client, redisTTL)
		deps.Broadcaster = redisinfra.NewBroadcaster(client, cfg.Redis.Channel, log)
		deps.Quizzes = redisinfra.NewQuizRepository(client, loader, quizTTL, log)
		log.WithField("addr", cfg.Redis.Addr).Info("using redis game store")
	} else {
		deps.Games = memory.NewGameRepository()
		deps.Answers = memory.NewAnswerBuffer()
		deps.Broadcaster = memory.NewBroadcaster(256)
		deps.Quizzes = memory.NewQuizRepository(loader, quizTTL)
	}

	service := app.NewGameService(deps, app.Options{Timing: cfg.Timing(), MaxRetries: cfg.MaxRetries()})
	defer service.Scheduler().Stop()

	messages, unsubscribe, err := deps.Broadcaster.Subscribe(ctx)
	if err != nil {
		return err
	}
	defer unsubscribe()
	hub := transport.NewHub(log)
	go hub.Run(ctx, messages)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     transport.NewRouter(service, hub, deps.Metrics.Handler(), log),
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		log.WithField("port", finalPort).Info("starting quiz game service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("server failed")
			cancel()
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.WithField("signal", sig.String()).Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}
