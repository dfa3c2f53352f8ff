package assistant

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ChatLogEntry is one answered message, owned by the user who asked it.
type ChatLogEntry struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	PatientID string          `json:"patient_id,omitempty"`
	Message   string          `json:"message"`
	Response  string          `json:"response"`
	Intent    Intent          `json:"intent"`
	Context   json.RawMessage `json:"context,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// ChatLog is the append-only chat history.
type ChatLog interface {
	Append(ctx context.Context, entry ChatLogEntry) error
	ListByUser(ctx context.Context, userID string, limit int) ([]ChatLogEntry, error)
}

func (e *ChatLogEntry) fill() {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
}

// SQLChatLog writes to the chat_history table.
type SQLChatLog struct {
	db *sql.DB
}

func NewSQLChatLog(db *sql.DB) *SQLChatLog {
	return &SQLChatLog{db: db}
}

func (l *SQLChatLog) Append(ctx context.Context, entry ChatLogEntry) error {
	entry.fill()
	query := `
		INSERT INTO chat_history (
			id, user_id, patient_id, message, response, intent, context_snapshot, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := l.db.ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		nullString(entry.PatientID),
		entry.Message,
		entry.Response,
		string(entry.Intent),
		nullJSON(entry.Context),
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("assistant: failed to append chat log: %w", err)
	}
	return nil
}

// ListByUser returns the user's entries, newest first.
func (l *SQLChatLog) ListByUser(ctx context.Context, userID string, limit int) ([]ChatLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, user_id, patient_id, message, response, intent, context_snapshot, created_at
		FROM chat_history
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := l.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("assistant: failed to query chat log: %w", err)
	}
	defer rows.Close()

	var entries []ChatLogEntry
	for rows.Next() {
		var (
			e         ChatLogEntry
			patientID sql.NullString
			intent    string
			snapshot  []byte
		)
		if err := rows.Scan(&e.ID, &e.UserID, &patientID, &e.Message, &e.Response, &intent, &snapshot, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("assistant: failed to scan chat log: %w", err)
		}
		e.PatientID = patientID.String
		e.Intent = Intent(intent)
		if len(snapshot) > 0 {
			e.Context = json.RawMessage(snapshot)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("assistant: chat log rows: %w", err)
	}
	return entries, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

// MemoryChatLog keeps entries in process for demos and tests.
type MemoryChatLog struct {
	mu      sync.Mutex
	entries []ChatLogEntry
}

func NewMemoryChatLog() *MemoryChatLog {
	return &MemoryChatLog{}
}

func (l *MemoryChatLog) Append(ctx context.Context, entry ChatLogEntry) error {
	entry.fill()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	return nil
}

func (l *MemoryChatLog) ListByUser(ctx context.Context, userID string, limit int) ([]ChatLogEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []ChatLogEntry
	for i := len(l.entries) - 1; i >= 0; i-- {
		if l.entries[i].UserID == userID {
			out = append(out, l.entries[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
