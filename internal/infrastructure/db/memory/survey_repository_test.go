package memory

import (
	"context"
	"testing"
	"time"

	"github.com/pulseapp/pulse-survey/internal/core/domain"
)

func seedSurvey(t *testing.T, repo interface {
	Create(context.Context, *domain.Survey) error
}, id, userID string, at time.Time) {
	t.Helper()
	err := repo.Create(context.Background(), &domain.Survey{
		ID: id, UserID: userID, Response: "r-" + id, CreatedAt: at, UpdatedAt: at,
	})
	if err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
}

func ids(surveys []domain.Survey) []string {
	out := make([]string, len(surveys))
	for i, s := range surveys {
		out[i] = s.ID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSurveyRepository_ListAll_NewestFirst(t *testing.T) {
	repo := NewSurveyRepository(Open())
	t1 := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

	seedSurvey(t, repo, "s1", "u-1", t1)
	seedSurvey(t, repo, "s3", "u-2", t1.Add(2*time.Minute))
	seedSurvey(t, repo, "s2", "u-1", t1.Add(time.Minute))

	got, err := repo.ListAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"s3", "s2", "s1"}; !equal(ids(got), want) {
		t.Fatalf("got %v, want %v", ids(got), want)
	}
}

func TestSurveyRepository_ListByUser_FiltersOwner(t *testing.T) {
	repo := NewSurveyRepository(Open())
	t1 := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

	seedSurvey(t, repo, "a1", "alice", t1)
	seedSurvey(t, repo, "b1", "bob", t1.Add(time.Second))
	seedSurvey(t, repo, "a2", "alice", t1.Add(2*time.Second))

	got, _ := repo.ListByUser(context.Background(), "alice")
	if want := []string{"a2", "a1"}; !equal(ids(got), want) {
		t.Fatalf("got %v, want %v", ids(got), want)
	}
	for _, s := range got {
		if s.UserID != "alice" {
			t.Fatalf("foreign record leaked: %+v", s)
		}
	}

	none, _ := repo.ListByUser(context.Background(), "carol")
	if none == nil || len(none) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", none)
	}
}

func TestSurveyRepository_TiesLaterInsertFirst(t *testing.T) {
	repo := NewSurveyRepository(Open())
	at := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

	seedSurvey(t, repo, "first", "u", at)
	seedSurvey(t, repo, "second", "u", at)
	seedSurvey(t, repo, "third", "u", at)

	got, _ := repo.ListAll(context.Background())
	if want := []string{"third", "second", "first"}; !equal(ids(got), want) {
		t.Fatalf("got %v, want %v", ids(got), want)
	}
}

func TestSurveyRepository_ListReturnsCopies(t *testing.T) {
	repo := NewSurveyRepository(Open())
	seedSurvey(t, repo, "s1", "u", time.Now())

	got, _ := repo.ListAll(context.Background())
	got[0].Response = "tampered"

	again, _ := repo.ListAll(context.Background())
	if again[0].Response == "tampered" {
		t.Fatal("list must not alias store memory")
	}
}
