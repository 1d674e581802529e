package memory

import (
	"context"
	"sort"

	"github.com/pulseapp/pulse-survey/internal/core/domain"
	"github.com/pulseapp/pulse-survey/internal/core/ports"
)

type surveyRepository struct {
	db *surveyTable
}

func NewSurveyRepository(db *DB) ports.SurveyRepository {
	return &surveyRepository{db: db.surveys}
}

func (repo *surveyRepository) Create(_ context.Context, s *domain.Survey) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.rows = append(repo.db.rows, *s)
	return nil
}

func (repo *surveyRepository) ListByUser(_ context.Context, userID string) ([]domain.Survey, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	return repo.newestFirst(func(s *domain.Survey) bool { return s.UserID == userID }), nil
}

func (repo *surveyRepository) ListAll(_ context.Context) ([]domain.Survey, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	return repo.newestFirst(nil), nil
}

// newestFirst copies the matching rows sorted by CreatedAt descending.
// Rows are collected in reverse insertion order before the stable sort, so
// equal timestamps come out later-insert-first. Must be called with the
// lock held.
func (repo *surveyRepository) newestFirst(match func(*domain.Survey) bool) []domain.Survey {
	out := make([]domain.Survey, 0, len(repo.db.rows))
	for i := len(repo.db.rows) - 1; i >= 0; i-- {
		s := &repo.db.rows[i]
		if match == nil || match(s) {
			out = append(out, *s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
