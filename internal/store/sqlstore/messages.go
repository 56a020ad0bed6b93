package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rvail/docchat/internal/models"
	"github.com/rvail/docchat/internal/store"
)

// CreateMessage allocates an ID, defaults a zero timestamp to now, and
// persists the message. The stored record is returned.
func (s *SQLStore) CreateMessage(sender, recipient, content string, ts time.Time) (*models.Message, error) {
	msg := models.NewMessage(sender, recipient, content, ts)
	if err := s.SaveMessage(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// SaveMessage persists a fully-formed message.
func (s *SQLStore) SaveMessage(msg *models.Message) error {
	query := s.rebind("INSERT INTO messages (id, sender_username, recipient_username, content, created_at) VALUES (?, ?, ?, ?, ?)")
	_, err := s.db.Exec(query, msg.ID, msg.SenderUsername, msg.RecipientUsername, msg.Content, msg.Timestamp.UTC())
	if err != nil {
		return fmt.Errorf("save message: %w", err)
	}
	return nil
}

// GetMessageByID returns store.ErrNotFound for an unknown id.
func (s *SQLStore) GetMessageByID(id string) (*models.Message, error) {
	var msg models.Message
	query := s.rebind("SELECT id, sender_username, recipient_username, content, created_at FROM messages WHERE id = ?")

	err := s.db.QueryRow(query, id).Scan(&msg.ID, &msg.SenderUsername, &msg.RecipientUsername, &msg.Content, &msg.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	msg.Timestamp = msg.Timestamp.UTC()
	return &msg, nil
}

// FindConversation returns every message exchanged between userA and
// userB in either direction, ordered by timestamp. Equal timestamps are
// tie-broken by id in the same direction so results are deterministic.
func (s *SQLStore) FindConversation(userA, userB string, ascending bool) ([]models.Message, error) {
	direction := "DESC"
	if ascending {
		direction = "ASC"
	}
	query := s.rebind(fmt.Sprintf(`
		SELECT id, sender_username, recipient_username, content, created_at
		FROM messages
		WHERE (sender_username = ? AND recipient_username = ?)
		   OR (sender_username = ? AND recipient_username = ?)
		ORDER BY created_at %s, id %s
	`, direction, direction))

	rows, err := s.db.Query(query, userA, userB, userB, userA)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.SenderUsername, &m.RecipientUsername, &m.Content, &m.Timestamp); err != nil {
			return nil, err
		}
		m.Timestamp = m.Timestamp.UTC()
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (s *SQLStore) UpdateMessage(msg *models.Message) error {
	query := s.rebind("UPDATE messages SET sender_username = ?, recipient_username = ?, content = ?, created_at = ? WHERE id = ?")
	_, err := s.db.Exec(query, msg.SenderUsername, msg.RecipientUsername, msg.Content, msg.Timestamp.UTC(), msg.ID)
	return err
}

// DeleteMessage is idempotent: deleting an unknown id is a no-op.
func (s *SQLStore) DeleteMessage(id string) error {
	query := s.rebind("DELETE FROM messages WHERE id = ?")
	_, err := s.db.Exec(query, id)
	return err
}
