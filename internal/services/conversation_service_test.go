package services

import (
	"context"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	apperrors "github.com/aihub/answerai-go/internal/errors"
	"github.com/aihub/answerai-go/internal/models"
	"github.com/aihub/answerai-go/internal/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationCreate(t *testing.T) {
	db, mock := newMockDB(t)
	cache := search.NewCache(10)
	cache.Put("stale", nil)
	svc := NewConversationService(db, cache, nil)

	mock.ExpectExec(`INSERT INTO "conversations"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	conv, err := svc.Create("")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(conv.ID, "conv_"))
	assert.Equal(t, DefaultConversationTitle, conv.Title)
	assert.Equal(t, "[]", conv.ActiveFileIDs)

	// 写操作使检索缓存整体失效
	assert.Zero(t, cache.Len())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConversationGetNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewConversationService(db, nil, nil)

	mock.ExpectQuery(`SELECT \* FROM "conversations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}))

	_, err := svc.Get("conv_missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
}

func TestConversationDelete(t *testing.T) {
	db, mock := newMockDB(t)
	cache := search.NewCache(10)
	cache.Put("stale", nil)
	svc := NewConversationService(db, cache, nil)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "conversation_messages"`).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`DELETE FROM "conversations"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.Delete("conv_1"))
	assert.Zero(t, cache.Len())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConversationDeleteNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewConversationService(db, nil, nil)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "conversation_messages"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "conversations"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := svc.Delete("conv_missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
}

func TestConversationSetActiveFiles(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewConversationService(db, nil, nil)

	mock.ExpectExec(`UPDATE "conversations"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.SetActiveFiles("conv_1", []string{"file_a", "file_b"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConversationsInOrderMapsMessages(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewConversationService(db, nil, nil)

	ts := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT \* FROM "conversations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "active_file_ids", "created_at", "updated_at"}).
			AddRow("conv_1", "Ops", "[]", ts, ts))
	mock.ExpectQuery(`SELECT \* FROM "conversation_messages"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "conversation_id", "role", "content", "created_at"}).
			AddRow(1, "conv_1", "user", "hello", ts).
			AddRow(2, "conv_1", "assistant", "hi", ts.Add(time.Second)))

	data, err := svc.ConversationsInOrder()
	require.NoError(t, err)
	require.Len(t, data, 1)
	require.Len(t, data[0].Messages, 2)
	assert.Equal(t, "Ops", data[0].Title)
	assert.Equal(t, "assistant", data[0].Messages[1].Role)
	assert.Equal(t, ts.Add(time.Second), data[0].Messages[1].Timestamp)
}

func TestConversationActiveTracking(t *testing.T) {
	db, mock := newMockDB(t)
	kv := newServiceFakeKV()
	svc := NewConversationService(db, nil, kv)
	ctx := context.Background()

	// 未设置时为空
	active, err := svc.Active(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	ts := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT \* FROM "conversations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "active_file_ids", "created_at", "updated_at"}).
			AddRow("conv_1", "Ops", "[]", ts, ts))
	mock.ExpectQuery(`SELECT \* FROM "conversation_messages"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	require.NoError(t, svc.SetActive(ctx, "conv_1"))
	active, err = svc.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, "conv_1", active)

	// 清除选择
	require.NoError(t, svc.SetActive(ctx, ""))
	active, err = svc.Active(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestAutoTitleFromFirstUserMessage(t *testing.T) {
	conv := &models.Conversation{Title: DefaultConversationTitle}

	title, ok := autoTitle(conv, []models.ConversationMessage{
		{Role: "user", Content: "What is the refund policy?"},
		{Role: "assistant", Content: "The policy says..."},
	})
	require.True(t, ok)
	assert.Equal(t, "What is the refund policy?", title)
}

func TestAutoTitleSkipsCustomTitle(t *testing.T) {
	conv := &models.Conversation{Title: "My research"}

	_, ok := autoTitle(conv, []models.ConversationMessage{{Role: "user", Content: "question"}})
	assert.False(t, ok)
}

func TestAutoTitleSkipsNonEmptyHistory(t *testing.T) {
	conv := &models.Conversation{
		Title:    DefaultConversationTitle,
		Messages: []models.ConversationMessage{{Role: "user", Content: "earlier"}},
	}

	_, ok := autoTitle(conv, []models.ConversationMessage{{Role: "user", Content: "later"}})
	assert.False(t, ok)
}

func TestTruncateTitle(t *testing.T) {
	short := "short question"
	assert.Equal(t, short, truncateTitle(short))

	long := strings.Repeat("q", 60)
	got := truncateTitle(long)
	assert.Equal(t, strings.Repeat("q", 50)+"...", got)
}
