package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillloop/skillloop-backend/internal/logger"
	"github.com/skillloop/skillloop-backend/internal/types"
)

type RetentionPoint struct {
	Day      string  `json:"date"`
	TopicTag string  `json:"topic"`
	AvgScore float64 `json:"avg_score"`
}

type TopicAverage struct {
	TopicTag string  `json:"topic"`
	AvgScore float64 `json:"score"`
	Attempts int     `json:"attempts"`
}

type QuizScoreRepo interface {
	Create(ctx context.Context, tx *gorm.DB, scores []*types.QuizScore) ([]*types.QuizScore, error)
	GetRecentByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.QuizScore, error)
	RetentionByDay(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]RetentionPoint, error)
	AveragesByTopic(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]TopicAverage, error)
}

type quizScoreRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuizScoreRepo(db *gorm.DB, baseLog *logger.Logger) QuizScoreRepo {
	repoLog := baseLog.With("repo", "QuizScoreRepo")
	return &quizScoreRepo{db: db, log: repoLog}
}

func (r *quizScoreRepo) Create(ctx context.Context, tx *gorm.DB, scores []*types.QuizScore) ([]*types.QuizScore, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(scores) == 0 {
		return []*types.QuizScore{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&scores).Error; err != nil {
		return nil, err
	}
	return scores, nil
}

func (r *quizScoreRepo) GetRecentByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.QuizScore, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.QuizScore
	if userID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *quizScoreRepo) RetentionByDay(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]RetentionPoint, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []RetentionPoint
	if userID == uuid.Nil {
		return results, nil
	}

	// Zero-total rows are excluded rather than guarded per-row; they carry no
	// retention signal.
	if err := transaction.WithContext(ctx).
		Model(&types.QuizScore{}).
		Select("DATE(created_at) AS day, topic_tag, AVG(score / total_questions * 100) AS avg_score").
		Where("user_id = ? AND total_questions > 0", userID).
		Group("DATE(created_at), topic_tag").
		Order("day ASC").
		Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *quizScoreRepo) AveragesByTopic(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]TopicAverage, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []TopicAverage
	if userID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Model(&types.QuizScore{}).
		Select("topic_tag, AVG(score / total_questions * 100) AS avg_score, COUNT(id) AS attempts").
		Where("user_id = ? AND total_questions > 0", userID).
		Group("topic_tag").
		Order("avg_score ASC").
		Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
