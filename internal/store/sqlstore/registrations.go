package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rvail/docchat/internal/models"
	"github.com/rvail/docchat/internal/store"
)

// CreateRegistration persists a new unconfirmed registration. A
// username or email collision returns store.ErrConflict.
func (s *SQLStore) CreateRegistration(username, email string) (*models.Registration, error) {
	reg := models.NewRegistration(username, email)
	query := s.rebind("INSERT INTO registrations (id, username, email, confirmed) VALUES (?, ?, ?, ?)")
	_, err := s.db.Exec(query, reg.ID, reg.Username, reg.Email, reg.Confirmed)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, fmt.Errorf("create registration: %w", err)
	}
	return reg, nil
}

func (s *SQLStore) GetRegistrationByID(id string) (*models.Registration, error) {
	var reg models.Registration
	query := s.rebind("SELECT id, username, email, confirmed FROM registrations WHERE id = ?")

	err := s.db.QueryRow(query, id).Scan(&reg.ID, &reg.Username, &reg.Email, &reg.Confirmed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// ListRegistrations returns every registration ordered by username.
func (s *SQLStore) ListRegistrations() ([]models.Registration, error) {
	query := "SELECT id, username, email, confirmed FROM registrations ORDER BY username ASC"
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var regs []models.Registration
	for rows.Next() {
		var reg models.Registration
		if err := rows.Scan(&reg.ID, &reg.Username, &reg.Email, &reg.Confirmed); err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

// ConfirmRegistration flips the confirmed flag and provisions the user
// account in a single transaction. The conditional UPDATE acts as a
// compare-and-set: concurrent confirmations of the same id provision at
// most one account. Returns store.ErrNotFound for an unknown id and
// store.ErrAlreadyConfirmed when the flag was already set.
func (s *SQLStore) ConfirmRegistration(id, passwordHash string) (*models.Registration, *models.User, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(s.rebind("UPDATE registrations SET confirmed = TRUE WHERE id = ? AND NOT confirmed"), id)
	if err != nil {
		return nil, nil, fmt.Errorf("confirm registration: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, nil, err
	}

	var reg models.Registration
	err = tx.QueryRow(s.rebind("SELECT id, username, email, confirmed FROM registrations WHERE id = ?"), id).
		Scan(&reg.ID, &reg.Username, &reg.Email, &reg.Confirmed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, store.ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	if affected == 0 {
		return nil, nil, store.ErrAlreadyConfirmed
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     reg.Username,
		Email:        reg.Email,
		PasswordHash: passwordHash,
		Role:         models.RoleUser,
		StorageQuota: models.DefaultStorageQuota,
		CreatedAt:    time.Now().UTC(),
	}
	_, err = tx.Exec(
		s.rebind("INSERT INTO users (id, username, email, password, role, storage_quota, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)"),
		user.ID, user.Username, user.Email, user.PasswordHash, user.Role, user.StorageQuota, user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, nil, store.ErrConflict
		}
		return nil, nil, fmt.Errorf("provision user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	return &reg, user, nil
}

func (s *SQLStore) UpdateRegistration(reg *models.Registration) error {
	query := s.rebind("UPDATE registrations SET username = ?, email = ?, confirmed = ? WHERE id = ?")
	_, err := s.db.Exec(query, reg.Username, reg.Email, reg.Confirmed, reg.ID)
	if err != nil && isUniqueViolation(err) {
		return store.ErrConflict
	}
	return err
}

// DeleteRegistration is idempotent: deleting an unknown id is a no-op.
func (s *SQLStore) DeleteRegistration(id string) error {
	query := s.rebind("DELETE FROM registrations WHERE id = ?")
	_, err := s.db.Exec(query, id)
	return err
}
