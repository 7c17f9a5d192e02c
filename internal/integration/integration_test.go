package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"fibra-quiz-service/internal/app"
	"fibra-quiz-service/internal/content"
	"fibra-quiz-service/internal/domain"
	pgstore "fibra-quiz-service/internal/infra/postgres"
	pgmigrations "fibra-quiz-service/internal/infra/postgres/migrations"
	infraredis "fibra-quiz-service/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"
)

func TestExamAttemptEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := openDB(pgURL)
	defer db.Close()
	seedContent(t, ctx, db)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := pgstore.NewQuestionLoader(pool)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	questionRepo := infraredis.NewQuestionRepository(redisClient, loader, 5*time.Minute, zap.NewNop())
	attemptStore := infraredis.NewAttemptStore(redisClient, 5*time.Minute)
	results := pgstore.NewResultStore(db)
	service := app.NewQuizService(attemptStore, questionRepo, results)

	exam := domain.Subject{Kind: domain.SubjectExam, ID: 1}
	questions, err := loader.LoadQuestions(ctx, exam)
	if err != nil {
		t.Fatalf("load questions: %v", err)
	}
	if len(questions) != 5 || questions[0].LessonTitle != "Nouns" || questions[4].LessonTitle != "Verbs" {
		t.Fatalf("unexpected exam questions: %+v", questions)
	}

	view, err := service.Start(ctx, exam, app.ModeExam)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	for i, q := range questions {
		correct, ok := q.CorrectOption()
		if !ok {
			t.Fatalf("question %d has no single correct option", q.ID)
		}
		pick := correct.ID
		if i == len(questions)-1 {
			pick = wrongOption(t, q).ID
		}
		if _, err := service.Select(ctx, view.AttemptID, pick); err != nil {
			t.Fatalf("select: %v", err)
		}
		if _, _, err := service.Confirm(ctx, view.AttemptID); err != nil {
			t.Fatalf("confirm: %v", err)
		}
	}

	saved, err := service.Finalize(ctx, view.AttemptID, "u1")
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if saved.ID == 0 || saved.Score != 4 || saved.Total != 5 {
		t.Fatalf("unexpected saved result: %+v", saved)
	}

	latest, err := results.LatestResult(ctx, exam, "u1")
	if err != nil {
		t.Fatalf("latest result: %v", err)
	}
	if latest.ID != saved.ID || len(latest.Answers) != 5 || latest.Answers[4].Correct {
		t.Fatalf("stored result differs: %+v", latest)
	}

	review, err := service.LatestReview(ctx, exam, "u1")
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if review.Percentage != 80 || review.Wrong != 1 {
		t.Fatalf("unexpected review: %+v", review)
	}

	catalog := pgstore.NewCatalog(db)
	exams, err := catalog.ListExams(ctx)
	if err != nil {
		t.Fatalf("list exams: %v", err)
	}
	if len(exams) != 1 || exams[0].LessonsCount != 2 || exams[0].QuestionsCount != 5 {
		t.Fatalf("unexpected catalog: %+v", exams)
	}

	courses, err := catalog.ListCourses(ctx)
	if err != nil {
		t.Fatalf("list courses: %v", err)
	}
	if len(courses) != 1 || courses[0].Title != "Spanish" || courses[0].UnitsCount != 1 {
		t.Fatalf("unexpected courses: %+v", courses)
	}
	units, err := catalog.ListUnits(ctx, courses[0].ID)
	if err != nil {
		t.Fatalf("list units: %v", err)
	}
	if len(units) != 1 || len(units[0].Lessons) != 2 {
		t.Fatalf("unexpected units: %+v", units)
	}
	if l := units[0].Lessons; l[0].Title != "Nouns" || l[0].QuestionsCount != 3 || l[1].QuestionsCount != 2 {
		t.Fatalf("unexpected lessons: %+v", l)
	}
	if _, err := catalog.ListUnits(ctx, 999); !errors.Is(err, domain.ErrCourseNotFound) {
		t.Fatalf("expected course not found, got %v", err)
	}

	if _, err := loader.LoadQuestions(ctx, domain.Subject{Kind: domain.SubjectExam, ID: 99}); !errors.Is(err, domain.ErrSubjectNotFound) {
		t.Fatalf("expected subject not found, got %v", err)
	}
}

func wrongOption(t *testing.T, q domain.Question) domain.Option {
	t.Helper()
	for _, opt := range q.Options {
		if !opt.Correct {
			return opt
		}
	}
	t.Fatalf("question %d has no wrong option", q.ID)
	return domain.Option{}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
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
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
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

func openDB(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

func seedContent(t *testing.T, ctx context.Context, db *bun.DB) {
	t.Helper()
	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	stats, err := pgstore.NewImporter(db).Import(ctx, content.Sample())
	if err != nil {
		t.Fatalf("import content: %v", err)
	}
	if stats.Exams != 1 || stats.Challenges != 5 || len(stats.Subjects) != 3 {
		t.Fatalf("unexpected import stats: %+v", stats)
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
