package assistant

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLChatLog_Append(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	entry := ChatLogEntry{
		ID:        "c1",
		UserID:    "staff-1",
		PatientID: "p1",
		Message:   "how is she",
		Response:  "stable",
		Intent:    IntentExternal,
		Context:   json.RawMessage(`{"age":35}`),
		CreatedAt: time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC),
	}
	mock.ExpectExec("INSERT INTO chat_history").
		WithArgs("c1", "staff-1", "p1", "how is she", "stable", "external", []byte(`{"age":35}`), entry.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewSQLChatLog(db).Append(context.Background(), entry))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLChatLog_AppendWithoutPatient(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO chat_history").
		WithArgs(sqlmock.AnyArg(), "staff-1", nil, "how many patients", "There are 5 patients in total.", "patient_count", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = NewSQLChatLog(db).Append(context.Background(), ChatLogEntry{
		UserID:   "staff-1",
		Message:  "how many patients",
		Response: "There are 5 patients in total.",
		Intent:   IntentPatientCount,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLChatLog_ListByUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "user_id", "patient_id", "message", "response", "intent", "context_snapshot", "created_at"}).
		AddRow("c2", "staff-1", "p1", "vitals", "BP 124/80", "selected_vitals", nil, now).
		AddRow("c1", "staff-1", nil, "hello", "hi", "external", []byte(`{"age":35}`), now.Add(-time.Minute))
	mock.ExpectQuery("SELECT (.+) FROM chat_history").
		WithArgs("staff-1", 50).
		WillReturnRows(rows)

	entries, err := NewSQLChatLog(db).ListByUser(context.Background(), "staff-1", 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "p1", entries[0].PatientID)
	assert.Equal(t, IntentSelectedVitals, entries[0].Intent)
	assert.Nil(t, entries[0].Context)
	assert.Empty(t, entries[1].PatientID)
	assert.JSONEq(t, `{"age":35}`, string(entries[1].Context))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryChatLog(t *testing.T) {
	l := NewMemoryChatLog()
	ctx := context.Background()
	base := time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC)
	for i, user := range []string{"a", "b", "a", "a"} {
		require.NoError(t, l.Append(ctx, ChatLogEntry{UserID: user, Message: string(rune('w' + i)), CreatedAt: base.Add(time.Duration(i) * time.Minute)}))
	}

	entries, err := l.ListByUser(ctx, "a", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "z", entries[0].Message)
	assert.Equal(t, "y", entries[1].Message)
	assert.NotEmpty(t, entries[0].ID)
}
