package memory

import (
	"context"
	"time"

	"github.com/pulseapp/pulse-survey/internal/core/domain"
	"github.com/pulseapp/pulse-survey/internal/core/ports"
)

type userRepository struct {
	db *userTable
}

func NewUserRepository(db *DB) ports.UserRepository {
	return &userRepository{db: db.users}
}

// find must be called with the lock held.
func (repo *userRepository) find(match func(*domain.User) bool) *domain.User {
	for _, u := range repo.db.rows {
		if match(u) {
			return u
		}
	}
	return nil
}

func (repo *userRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	u := repo.find(func(u *domain.User) bool { return u.Email == email })
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (repo *userRepository) FindByID(_ context.Context, id string) (*domain.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	u := repo.find(func(u *domain.User) bool { return u.ID == id })
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	return u.Public(), nil
}

func (repo *userRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if repo.find(func(u *domain.User) bool { return u.Email == user.Email }) != nil {
		return nil, domain.ErrUserExists
	}

	row := *user
	repo.db.rows = append(repo.db.rows, &row)
	return row.Public(), nil
}

func (repo *userRepository) UpdateRole(_ context.Context, email string, role domain.Role, at time.Time) (*domain.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	u := repo.find(func(u *domain.User) bool { return u.Email == email })
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	u.Role = role
	u.UpdatedAt = at
	return u.Public(), nil
}
