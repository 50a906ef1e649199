package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/DmitriiButk/market-bot/internal/models"
	"github.com/DmitriiButk/market-bot/internal/repository"
)

type FAQService struct {
	questions repository.QuestionRepo
	log       *zap.Logger
}

func NewFAQService(questions repository.QuestionRepo, log *zap.Logger) *FAQService {
	return &FAQService{questions: questions, log: log}
}

func (s *FAQService) Ask(ctx context.Context, userID int64, question string) error {
	return s.questions.Add(ctx, userID, question)
}

func (s *FAQService) ListAnswered(ctx context.Context) ([]models.UserQuestion, error) {
	return s.questions.ListAnswered(ctx)
}

// GetAnswered возвращает отвеченный вопрос; nil — если вопрос не найден
// или ответа ещё нет.
func (s *FAQService) GetAnswered(ctx context.Context, id int64) (*models.UserQuestion, error) {
	q, err := s.questions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if q == nil || !q.IsAnswered {
		if q == nil {
			s.log.Error("Вопрос не найден", zap.Int64("question_id", id))
		}
		return nil, nil
	}
	return q, nil
}
