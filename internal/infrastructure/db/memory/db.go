// Package memory holds the process-local stores. Nothing here survives a
// restart.
package memory

import (
	"sync"

	"github.com/pulseapp/pulse-survey/internal/core/domain"
)

// DB owns the two tables. Each table is an ordered slice guarded by its own
// lock; insertion order is preserved.
type DB struct {
	users   *userTable
	surveys *surveyTable
}

type userTable struct {
	rows  []*domain.User
	mutex sync.RWMutex
}

type surveyTable struct {
	rows  []domain.Survey
	mutex sync.RWMutex
}

func Open() *DB {
	return &DB{
		users:   &userTable{},
		surveys: &surveyTable{},
	}
}
