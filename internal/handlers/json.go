package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rvail/docchat/internal/models"
)

// timestampLayout renders timestamps as UTC ISO-8601 with millisecond
// precision, e.g. 2026-01-02T15:04:05.000Z.
const timestampLayout = "2006-01-02T15:04:05.000Z"

type messageJSON struct {
	ID                string `json:"id"`
	SenderUsername    string `json:"senderUsername"`
	RecipientUsername string `json:"recipientUsername"`
	Content           string `json:"content"`
	Timestamp         string `json:"timestamp"`
}

func toMessageJSON(m *models.Message) messageJSON {
	return messageJSON{
		ID:                m.ID,
		SenderUsername:    m.SenderUsername,
		RecipientUsername: m.RecipientUsername,
		Content:           m.Content,
		Timestamp:         m.Timestamp.UTC().Format(timestampLayout),
	}
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
