package registry

import (
	"time"

	"github.com/jmoiron/sqlx"

	"shiftbot-backend/internal/models"
)

// PostgresStore persists workers in the workers table.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) LoadAll() (map[int64]models.Worker, error) {
	var workers []models.Worker
	if err := s.db.Select(&workers, `SELECT id, phone, fio, created_at FROM workers`); err != nil {
		return nil, err
	}

	out := make(map[int64]models.Worker, len(workers))
	for _, w := range workers {
		out[w.ID] = w
	}
	return out, nil
}

func (s *PostgresStore) Append(w models.Worker) error {
	_, err := s.db.Exec(
		`INSERT INTO workers (id, phone, fio, created_at) VALUES ($1, $2, $3, $4)`,
		w.ID, w.Phone, w.FullName, time.Now().Unix(),
	)
	return err
}
