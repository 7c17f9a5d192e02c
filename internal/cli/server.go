package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fibra-quiz-service/internal/app"
	"fibra-quiz-service/internal/auth"
	"fibra-quiz-service/internal/config"
	"fibra-quiz-service/internal/content"
	"fibra-quiz-service/internal/infra/media"
	"fibra-quiz-service/internal/infra/memory"
	pgstore "fibra-quiz-service/internal/infra/postgres"
	"fibra-quiz-service/internal/infra/rabbitmq"
	redisstore "fibra-quiz-service/internal/infra/redis"
	"fibra-quiz-service/internal/logging"
	"fibra-quiz-service/internal/metrics"
	transport "fibra-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultPort = "8080"

// listenPort prefers the --port flag (or PORT), then server.port from config.
func listenPort(flagPort, cfgPort string) string {
	if flagPort != "" {
		return flagPort
	}
	if cfgPort != "" {
		return cfgPort
	}
	return defaultPort
}

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
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logging.New(cfg.Log.Level, cfg.Log.File)
	defer log.Sync()

	finalPort := listenPort(portFlag, cfg.Server.Port)

	var (
		loader  memory.QuestionLoader
		results app.ResultStore
		catalog transport.Catalog
	)
	if cfg.Postgres.URL != "" {
		db, err := openBunDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := runMigrations(ctx, db, log); err != nil {
			return err
		}

		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()

		loader = pgstore.NewQuestionLoader(pool)
		results = pgstore.NewResultStore(db)
		catalog = pgstore.NewCatalog(db)
	} else {
		log.Warn("postgres url empty, serving bundled sample content from memory")
		static := content.Sample().Resolve()
		loader = memory.NewStaticQuestionLoader(static.Questions)
		results = memory.NewResultStore()
		catalog = memory.NewCatalog(static.Exams, static.Courses, static.Units)
	}

	if cfg.Media.Endpoint != "" {
		signer, err := media.NewMinioSigner(
			cfg.Media.Endpoint,
			cfg.Media.AccessKey,
			cfg.Media.SecretKey,
			cfg.Media.Bucket,
			cfg.Media.UseSSL,
			config.TTLDuration(cfg.Media.URLExpiry, time.Hour),
		)
		if err != nil {
			return err
		}
		loader = media.NewSigningLoader(loader, signer)
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
	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)

	var questions app.QuestionRepository
	var attempts app.AttemptRepository
	if redisClient != nil {
		questions = redisstore.NewQuestionRepository(redisClient, loader, questionTTL, log)
		attempts = redisstore.NewAttemptStore(redisClient, redisTTL)
	} else {
		questions = memory.NewQuestionRepository(loader, questionTTL)
		attempts = memory.NewAttemptStore()
	}

	publisher, err := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, log)
	if err != nil {
		return err
	}
	defer publisher.Close()

	recorder := metrics.NewRecorder()
	opts := []app.Option{app.WithMetrics(recorder), app.WithLogger(log)}
	if publisher.Enabled() {
		opts = append(opts, app.WithEvents(publisher))
	}
	service := app.NewQuizService(attempts, questions, results, opts...)

	if cfg.Auth.JWTSecret == "" {
		log.Warn("auth.jwtSecret empty, every attempt is anonymous and results cannot be saved")
	}
	verifier := auth.NewVerifier(cfg.Auth.JWTSecret)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", recorder.Handler())
	mux.HandleFunc("/ws/attempt", transport.NewWSHandler(service, verifier, log).ServeWS)
	transport.NewRESTHandler(service, catalog, verifier, log).Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting quiz service", zap.String("port", finalPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
