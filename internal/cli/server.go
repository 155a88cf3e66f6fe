package cli

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"bankprep-service/internal/app"
	"bankprep-service/internal/auth"
	"bankprep-service/internal/config"
	"bankprep-service/internal/domain"
	"bankprep-service/internal/infra/memory"
	"bankprep-service/internal/infra/postgres"
	redisinfra "bankprep-service/internal/infra/redis"
	transport "bankprep-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz prep server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// loadConfig reads the YAML config, falling back to in-memory defaults when
// the file does not exist.
func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("no config at %s, using defaults", path)
			return config.Default(), nil
		}
		return config.Config{}, err
	}
	return cfg, nil
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := loadConfig(configPath)
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

	var (
		quizzes  app.QuizStore
		results  app.ResultRepository
		users    app.UserRepository
		subjects app.SubjectRepository
		chapters app.ChapterRepository
		loader   memory.QuizLoader
	)
	if cfg.Postgres.URL != "" {
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
		db := bun.NewDB(sqldb, pgdialect.New())
		defer db.Close()

		store := postgres.NewStore(db)
		quizzes, results, users, subjects, chapters = store, store, store, store, store

		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		loader = postgres.NewQuizLoader(pool)
	} else {
		store := memory.NewStore()
		quizzes, results, users, subjects, chapters = store, store, store, store, store
		loader = store
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizCache interface {
		app.QuizRepository
		app.QuizCacheInvalidator
	}
	if redisClient != nil {
		quizCache = redisinfra.NewQuizCache(redisClient, loader, quizTTL)
	} else {
		quizCache = memory.NewQuizCache(loader, quizTTL)
	}

	var boards app.BoardStore
	if redisClient != nil {
		redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)
		boards = redisinfra.NewBoardStore(redisClient, redisTTL)
	} else {
		boards = memory.NewBoardStore()
	}

	accounts := app.NewAccountService(users)
	catalog := app.NewCatalogService(subjects, chapters, quizzes).WithCache(quizCache)
	attempts := app.NewAttemptService(quizCache, results, users, boards)
	analytics := app.NewAnalyticsService(results)
	tokens := auth.NewService(cfg.Auth.Secret, config.TTLDuration(cfg.Auth.TokenTTL, 8*time.Hour))

	seedAdmin(ctx, accounts)

	handler := transport.NewHandler(accounts, catalog, attempts, analytics, tokens)
	wsHandler := transport.NewWSHandler(attempts)
	router := transport.NewRouter(handler, wsHandler, tokens)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting bankprep service on :%s", finalPort)
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

// seedAdmin creates the bootstrap admin account from the environment, so a
// fresh deployment has someone who can author quizzes.
func seedAdmin(ctx context.Context, accounts *app.AccountService) {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return
	}
	_, err := accounts.Register(ctx, "Administrator", email, password, domain.RoleAdmin)
	if err != nil && !errors.Is(err, domain.ErrEmailTaken) {
		log.Printf("admin seed failed: %v", err)
	}
}
