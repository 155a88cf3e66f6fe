package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"bankprep-service/internal/app"
	"bankprep-service/internal/domain"
	"bankprep-service/internal/infra/postgres"
	pgmigrations "bankprep-service/internal/infra/postgres/migrations"
	infraredis "bankprep-service/internal/infra/redis"
)

func TestSubmitEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := openBun(t, ctx, pgURL)
	defer db.Close()
	store := postgres.NewStore(db)

	quiz := sampleQuiz()
	if err := store.CreateQuiz(ctx, quiz); err != nil {
		t.Fatalf("seed quiz: %v", err)
	}
	if err := store.CreateUser(ctx, domain.User{
		ID: "u1", Name: "Asha", Email: "asha@example.com", Role: domain.RoleStudent, PasswordHash: "x",
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	cache := infraredis.NewQuizCache(redisClient, postgres.NewQuizLoader(pool), 5*time.Minute)
	boards := infraredis.NewBoardStore(redisClient, 5*time.Minute)
	service := app.NewAttemptService(cache, store, store, boards)

	// q1 correct, q2 wrong, q3 unanswered: raw 0.75 of 3 -> 25.
	result, err := service.Submit(ctx, "u1", quiz.ID, app.Submission{
		Answers:        map[string]int{"q1": 1, "q2": 0},
		TimeSpentSec:   240,
		IdempotencyKey: "attempt-1",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.TotalScore != 25 || result.Correct != 1 || result.Wrong != 1 || result.Unanswered != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}

	stored, err := store.GetResult(ctx, result.ID)
	if err != nil {
		t.Fatalf("get result: %v", err)
	}
	if stored.RawScore != 0.75 || stored.NegativeMarkValue != 0.25 {
		t.Fatalf("result not persisted faithfully: %+v", stored)
	}
	if len(stored.Answers) != 2 || stored.SectionScores["reasoning"] == 0 {
		t.Fatalf("expected answers and section scores round-tripped: %+v", stored)
	}

	user, err := store.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.TotalQuizzes != 1 || user.AverageScore != 25 {
		t.Fatalf("expected stats (1, 25), got (%d, %d)", user.TotalQuizzes, user.AverageScore)
	}

	// The same idempotency key must not create a second row.
	again, err := service.Submit(ctx, "u1", quiz.ID, app.Submission{
		Answers:        map[string]int{"q1": 1, "q2": 0},
		IdempotencyKey: "attempt-1",
	})
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if again.ID != result.ID {
		t.Fatalf("expected the recorded result back, got %s and %s", result.ID, again.ID)
	}
	results, err := store.ListResultsByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	board, err := service.Leaderboard(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board.Entries) != 1 || board.Entries[0].TotalScore != 25 {
		t.Fatalf("unexpected board: %+v", board.Entries)
	}
}

func TestResultDeleteRecomputesStatsEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := openBun(t, ctx, pgURL)
	defer db.Close()
	store := postgres.NewStore(db)

	quiz := sampleQuiz()
	if err := store.CreateQuiz(ctx, quiz); err != nil {
		t.Fatalf("seed quiz: %v", err)
	}
	if err := store.CreateUser(ctx, domain.User{
		ID: "u1", Name: "Asha", Email: "asha@example.com", Role: domain.RoleStudent, PasswordHash: "x",
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()
	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	cache := infraredis.NewQuizCache(redisClient, postgres.NewQuizLoader(pool), 5*time.Minute)
	service := app.NewAttemptService(cache, store, store, infraredis.NewBoardStore(redisClient, 5*time.Minute))

	low, err := service.Submit(ctx, "u1", quiz.ID, app.Submission{Answers: map[string]int{"q1": 0}})
	if err != nil {
		t.Fatalf("submit low: %v", err)
	}
	if _, err := service.Submit(ctx, "u1", quiz.ID, app.Submission{
		Answers: map[string]int{"q1": 1, "q2": 2, "q3": 0},
	}); err != nil {
		t.Fatalf("submit high: %v", err)
	}

	if err := service.DeleteResult(ctx, low.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	user, err := store.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.TotalQuizzes != 1 || user.AverageScore != 100 {
		t.Fatalf("expected stats (1, 100) after delete, got (%d, %d)", user.TotalQuizzes, user.AverageScore)
	}
}

func openBun(t *testing.T, ctx context.Context, dsn string) *bun.DB {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:    "quiz-1",
		Title: "Reasoning Mock 1",
		Questions: []domain.Question{
			{ID: "q1", Section: "reasoning", Prompt: "Q1", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 1},
			{ID: "q2", Section: "reasoning", Prompt: "Q2", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 2},
			{ID: "q3", Section: "quantitative", Prompt: "Q3", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 0},
		},
		Sections:          []string{"reasoning", "quantitative"},
		NegativeMarking:   true,
		NegativeMarkValue: 0.25,
		Active:            true,
		CreatedBy:         "admin-1",
		CreatedAt:         time.Now().UTC(),
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "bankprep", "POSTGRES_PASSWORD": "bankpreppass", "POSTGRES_DB": "bankprepdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://bankprep:bankpreppass@%s:%s/bankprepdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
