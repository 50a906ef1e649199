package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/DmitriiButk/market-bot/internal/models"
)

type QuestionRepo interface {
	Add(ctx context.Context, userID int64, question string) error
	ListAnswered(ctx context.Context) ([]models.UserQuestion, error)
	Get(ctx context.Context, id int64) (*models.UserQuestion, error)
	// SaveAnswer записывает ответ и возвращает ID пользователя, задавшего вопрос.
	SaveAnswer(ctx context.Context, id int64, answer string) (int64, error)
}

type questionRepo struct{ db *gorm.DB }

func NewQuestionRepo(db *gorm.DB) QuestionRepo { return &questionRepo{db: db} }

func (r *questionRepo) Add(ctx context.Context, userID int64, question string) error {
	q := models.UserQuestion{UserID: userID, Question: question}
	return r.db.WithContext(ctx).Create(&q).Error
}

func (r *questionRepo) ListAnswered(ctx context.Context) ([]models.UserQuestion, error) {
	var list []models.UserQuestion
	err := r.db.WithContext(ctx).
		Where("is_answered = ?", true).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *questionRepo) Get(ctx context.Context, id int64) (*models.UserQuestion, error) {
	var q models.UserQuestion
	err := r.db.WithContext(ctx).First(&q, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &q, err
}

func (r *questionRepo) SaveAnswer(ctx context.Context, id int64, answer string) (int64, error) {
	var q models.UserQuestion
	err := r.db.WithContext(ctx).First(&q, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("%w: id=%d", ErrQuestionNotFound, id)
	}
	if err != nil {
		return 0, err
	}

	err = r.db.WithContext(ctx).Model(&q).Updates(map[string]any{
		"answer":      answer,
		"is_answered": true,
	}).Error
	if err != nil {
		return 0, err
	}
	return q.UserID, nil
}
