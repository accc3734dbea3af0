package repos

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/skillloop/skillloop-backend/internal/logger"
	"github.com/skillloop/skillloop-backend/internal/types"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("failed to build logger: %v", err)
	}
	return log
}

// testDB opens an in-memory database on a single connection and creates the
// tables by hand; the production column defaults are postgres-only.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	stmts := []string{
		`CREATE TABLE quiz_score (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			topic_tag TEXT NOT NULL,
			score REAL NOT NULL,
			total_questions INTEGER NOT NULL,
			attempts INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE chat_turn (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			session_id TEXT,
			title TEXT,
			prompt TEXT NOT NULL,
			response TEXT,
			embedding TEXT,
			telemetry TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			deleted_at DATETIME
		)`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("failed to create table: %v", err)
		}
	}
	return db
}

func seedQuizScore(t *testing.T, repo QuizScoreRepo, userID uuid.UUID, topic string, score float64, total int, at time.Time) {
	t.Helper()
	_, err := repo.Create(context.Background(), nil, []*types.QuizScore{{
		ID:             uuid.New(),
		UserID:         userID,
		TopicTag:       topic,
		Score:          score,
		TotalQuestions: total,
		Attempts:       1,
		CreatedAt:      at,
	}})
	if err != nil {
		t.Fatalf("failed to seed quiz score: %v", err)
	}
}

func TestRetentionByDay_AveragesPerDayAndTopic(t *testing.T) {
	repo := NewQuizScoreRepo(testDB(t), testLogger(t))
	userID := uuid.New()
	day1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)

	seedQuizScore(t, repo, userID, "slices", 2, 4, day1)
	seedQuizScore(t, repo, userID, "slices", 4, 4, day1.Add(2*time.Hour))
	seedQuizScore(t, repo, userID, "slices", 1, 4, day2)
	// Zero-total rows carry no retention signal and must not form a group.
	seedQuizScore(t, repo, userID, "maps", 0, 0, day1)
	// Another learner's scores must not bleed into the averages.
	seedQuizScore(t, repo, uuid.New(), "slices", 4, 4, day1)

	points, err := repo.RetentionByDay(context.Background(), nil, userID)
	if err != nil {
		t.Fatalf("retention query failed: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 retention points, got %d: %+v", len(points), points)
	}
	if points[0].Day != "2024-03-01" || points[0].TopicTag != "slices" {
		t.Fatalf("unexpected first point: %+v", points[0])
	}
	// (50 + 100) / 2
	if math.Abs(points[0].AvgScore-75.0) > 1e-9 {
		t.Fatalf("expected day-1 average 75.0, got %f", points[0].AvgScore)
	}
	if points[1].Day != "2024-03-02" || math.Abs(points[1].AvgScore-25.0) > 1e-9 {
		t.Fatalf("unexpected second point: %+v", points[1])
	}
}

func TestRetentionByDay_NilUserReturnsNothing(t *testing.T) {
	repo := NewQuizScoreRepo(testDB(t), testLogger(t))
	points, err := repo.RetentionByDay(context.Background(), nil, uuid.Nil)
	if err != nil {
		t.Fatalf("retention query failed: %v", err)
	}
	if len(points) != 0 {
		t.Fatalf("expected no points for the nil user, got %d", len(points))
	}
}

func TestAveragesByTopic_OrdersWeakestFirst(t *testing.T) {
	repo := NewQuizScoreRepo(testDB(t), testLogger(t))
	userID := uuid.New()
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	seedQuizScore(t, repo, userID, "maps", 1, 4, at)
	seedQuizScore(t, repo, userID, "slices", 2, 4, at.Add(time.Hour))
	seedQuizScore(t, repo, userID, "slices", 4, 4, at.Add(2*time.Hour))
	seedQuizScore(t, repo, userID, "slices", 0, 0, at)
	seedQuizScore(t, repo, uuid.New(), "maps", 4, 4, at)

	topics, err := repo.AveragesByTopic(context.Background(), nil, userID)
	if err != nil {
		t.Fatalf("averages query failed: %v", err)
	}
	if len(topics) != 2 {
		t.Fatalf("expected 2 topics, got %d: %+v", len(topics), topics)
	}
	if topics[0].TopicTag != "maps" || math.Abs(topics[0].AvgScore-25.0) > 1e-9 || topics[0].Attempts != 1 {
		t.Fatalf("unexpected weakest topic: %+v", topics[0])
	}
	if topics[1].TopicTag != "slices" || math.Abs(topics[1].AvgScore-75.0) > 1e-9 || topics[1].Attempts != 2 {
		t.Fatalf("unexpected second topic: %+v", topics[1])
	}
}
