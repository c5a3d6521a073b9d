// Package seed loads reference data (users, escrutinios, candidates)
// from a YAML fixture into the server store.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/iudanet/escrutinio/internal/models"
	"github.com/iudanet/escrutinio/internal/server/storage"
)

// Fixture справочные данные для загрузки
type Fixture struct {
	Users       []User       `yaml:"users"`
	Escrutinios []Escrutinio `yaml:"escrutinios"`
	Candidates  []Candidate  `yaml:"candidates"`
}

// User пользователь из фикстуры
type User struct {
	ID       string `yaml:"id"`
	Username string `yaml:"username"`
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Role     string `yaml:"role"`
}

// Escrutinio escrutinio из фикстуры
type Escrutinio struct {
	ID            string `yaml:"id"`
	MesaNumber    string `yaml:"mesa"`
	ElectionLevel string `yaml:"level"`
	UserID        string `yaml:"user_id"`
}

// Candidate кандидат из фикстуры
type Candidate struct {
	ID            string `yaml:"id"`
	PartyID       string `yaml:"party"`
	Name          string `yaml:"name"`
	ElectionLevel string `yaml:"level"`
	CasillaNumber int    `yaml:"casilla"`
}

// Store операции хранилища, нужные для загрузки
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	CreateEscrutinio(ctx context.Context, e *models.Escrutinio) error
	CreateCandidate(ctx context.Context, c *models.Candidate) error
}

// Result количество созданных и пропущенных записей
type Result struct {
	Created int
	Skipped int
}

// LoadFile читает фикстуру из YAML файла
func LoadFile(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}

	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}

	return &f, nil
}

// Apply загружает фикстуру. Уже существующие записи пропускаются,
// поэтому повторный запуск безопасен.
func Apply(ctx context.Context, logger *slog.Logger, store Store, f *Fixture) (Result, error) {
	var res Result
	now := time.Now()

	count := func(err error, exists error, kind, id string) error {
		switch {
		case err == nil:
			res.Created++
		case errors.Is(err, exists):
			logger.Debug("Seed record already exists", "kind", kind, "id", id)
			res.Skipped++
		default:
			return fmt.Errorf("failed to seed %s %s: %w", kind, id, err)
		}
		return nil
	}

	for _, u := range f.Users {
		err := store.CreateUser(ctx, &models.User{
			ID:        u.ID,
			Username:  u.Username,
			Name:      u.Name,
			Email:     u.Email,
			Role:      u.Role,
			CreatedAt: now,
		})
		if err := count(err, storage.ErrUserAlreadyExists, "user", u.ID); err != nil {
			return res, err
		}
	}

	for _, e := range f.Escrutinios {
		err := store.CreateEscrutinio(ctx, &models.Escrutinio{
			ID:            e.ID,
			MesaNumber:    e.MesaNumber,
			ElectionLevel: e.ElectionLevel,
			UserID:        e.UserID,
			CreatedAt:     now,
		})
		if err := count(err, storage.ErrEscrutinioExists, "escrutinio", e.ID); err != nil {
			return res, err
		}
	}

	for _, c := range f.Candidates {
		err := store.CreateCandidate(ctx, &models.Candidate{
			ID:            c.ID,
			PartyID:       c.PartyID,
			Name:          c.Name,
			ElectionLevel: c.ElectionLevel,
			CasillaNumber: c.CasillaNumber,
		})
		if err := count(err, storage.ErrCandidateExists, "candidate", c.ID); err != nil {
			return res, err
		}
	}

	logger.Info("Seed applied", "created", res.Created, "skipped", res.Skipped)
	return res, nil
}
