package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/rvail/docchat/internal/models"
	"github.com/rvail/docchat/internal/store"
)

func (s *SQLStore) CreateUser(user *models.User) error {
	query := s.rebind("INSERT INTO users (id, username, email, password, role, storage_quota, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)")
	_, err := s.db.Exec(query, user.ID, user.Username, user.Email, user.PasswordHash, user.Role, user.StorageQuota, user.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *SQLStore) GetUserByUsername(username string) (*models.User, error) {
	query := s.rebind("SELECT id, username, email, password, role, storage_quota, created_at FROM users WHERE username = ?")
	return s.scanUser(s.db.QueryRow(query, username))
}

func (s *SQLStore) GetUserByID(id string) (*models.User, error) {
	query := s.rebind("SELECT id, username, email, password, role, storage_quota, created_at FROM users WHERE id = ?")
	return s.scanUser(s.db.QueryRow(query, id))
}

func (s *SQLStore) scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Role, &user.StorageQuota, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}
