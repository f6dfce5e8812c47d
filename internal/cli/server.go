package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"guidely-quiz-service/internal/app"
	"guidely-quiz-service/internal/catalog"
	"guidely-quiz-service/internal/config"
	"guidely-quiz-service/internal/infra/memory"
	"guidely-quiz-service/internal/infra/postgres"
	redisstore "guidely-quiz-service/internal/infra/redis"
	"guidely-quiz-service/internal/logging"
	transport "guidely-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.LoadOptional(configPath)
	if err != nil {
		return err
	}
	format := cfg.Log.Format
	if format == "" {
		format = "json"
	}
	logger := logging.New(os.Stdout, cfg.LogLevel(), format)

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
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var (
		pool    *pgxpool.Pool
		results app.ResultStore
	)
	if cfg.Postgres.URL != "" {
		db := postgres.OpenBun(cfg.Postgres.URL)
		defer db.Close()
		if _, err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		results = postgres.NewResultStore(db)

		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.QuestionLoader
	switch {
	case pool != nil:
		loader = postgres.NewQuestionLoader(pool, logger)
	case cfg.Quiz.QuestionFile != "":
		loader = memory.NewFileQuestionLoader(cfg.Quiz.QuestionFile, logger)
	default:
		loader = memory.NewStaticQuestionLoader(catalog.Questions())
	}

	questionTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var questions app.QuestionRepository
	if redisClient != nil {
		questions = redisstore.NewQuestionRepository(redisClient, loader, questionTTL, logger)
	} else {
		questions = memory.NewQuestionRepository(loader, questionTTL)
	}

	var sessions app.SessionRepository
	if redisClient != nil {
		sessions = redisstore.NewSessionStore(redisClient, redisTTL)
	} else {
		sessions = memory.NewSessionStoreWithTTL(config.TTLDuration(cfg.Quiz.IdleTTL, memory.DefaultIdleTTL))
	}

	if results == nil {
		if redisClient != nil {
			results = redisstore.NewResultStore(redisClient, config.TTLDuration(cfg.Redis.ResultTTL, 0))
		} else {
			results = memory.NewResultStore()
		}
	}

	service := app.NewQuizService(sessions, questions, results, app.Options{
		MinAnswered: submissionGate(cfg),
		Logger:      logger,
	})

	perSecond, burst := cfg.Limits()
	limits := transport.Limits{PerSecond: perSecond, Burst: burst}
	wsHandler := transport.NewWSHandler(service, limits, logger)

	api := http.NewServeMux()
	transport.NewAPI(service, logger).Routes(api)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.Handle("/api/", transport.NewIPLimiter(limits, logger).Middleware(api))

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting quiz service", "port", finalPort,
			"redis", redisClient != nil, "postgres", pool != nil)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start server", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// submissionGate maps min_answered onto app.Options, where zero means the
// default.
func submissionGate(cfg config.Config) int {
	n := cfg.MinAnswered(app.DefaultMinAnswered)
	if n <= 0 {
		return app.NoSubmissionGate
	}
	return n
}
