package services

import (
	"context"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	apperrors "github.com/aihub/answerai-go/internal/errors"
	"github.com/aihub/answerai-go/internal/knowledge"
	"github.com/aihub/answerai-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type docServiceFixture struct {
	svc   *DocumentService
	mock  sqlmock.Sqlmock
	store *knowledge.MemoryVectorStore
}

func newDocServiceFixture(t *testing.T) *docServiceFixture {
	t.Helper()

	db, mock := newMockDB(t)
	store := knowledge.NewMemoryVectorStore()
	chunker, err := knowledge.NewChunker(100, 20)
	require.NoError(t, err)
	processor := knowledge.NewProcessor(chunker, nil, stubEmbedder{}, store, 2, 0)

	return &docServiceFixture{
		svc:   NewDocumentService(db, processor, store, nil),
		mock:  mock,
		store: store,
	}
}

func TestDocumentRegisterIndexesText(t *testing.T) {
	f := newDocServiceFixture(t)

	f.mock.ExpectExec(`INSERT INTO "documents"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	doc, err := f.svc.Register(context.Background(), "report.pdf", strings.Repeat("a", 250), nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(doc.ID, "file_"))
	assert.NotEmpty(t, f.store.ChunksForFile(doc.ID))
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestDocumentRegisterRejectsEmptyText(t *testing.T) {
	f := newDocServiceFixture(t)

	_, err := f.svc.Register(context.Background(), "report.pdf", "   ", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidationFailed))
}

func TestDocumentDeleteCleansUp(t *testing.T) {
	db, mock := newMockDB(t)
	store := knowledge.NewMemoryVectorStore()
	chunker, err := knowledge.NewChunker(100, 20)
	require.NoError(t, err)
	processor := knowledge.NewProcessor(chunker, nil, stubEmbedder{}, store, 2, 0)

	kv := newServiceFakeKV()
	cache := knowledge.NewChunkCache(kv, 1, 7*24*time.Hour)
	svc := NewDocumentService(db, processor, store, cache)

	ctx := context.Background()
	store.ReplaceChunks("file_1", []knowledge.DocumentChunk{
		{ID: "file_1_chunk_0", FileID: "file_1", FileName: "report.pdf", Text: "hello", Embedding: []float32{1, 0}},
	})
	require.NoError(t, cache.Set(ctx, "file_1", store.ChunksForFile("file_1"), 100, 20))

	mock.ExpectExec(`DELETE FROM "documents"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.Delete(ctx, "file_1"))
	assert.Zero(t, store.Count())

	_, hit := cache.Get(ctx, "file_1", 100, 20)
	assert.False(t, hit)
}

func TestDocumentDeleteNotFound(t *testing.T) {
	f := newDocServiceFixture(t)

	f.mock.ExpectExec(`DELETE FROM "documents"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := f.svc.Delete(context.Background(), "file_missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
}

func TestDocumentEnsureIndexedAllContinuesOnFailure(t *testing.T) {
	f := newDocServiceFixture(t)

	// 第一个文档不存在，第二个正常索引
	f.mock.ExpectQuery(`SELECT \* FROM "documents"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "text"}))
	f.mock.ExpectQuery(`SELECT \* FROM "documents"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "text", "pages"}).
			AddRow("file_2", "good.pdf", strings.Repeat("b", 150), "[]"))

	err := f.svc.EnsureIndexedAll(context.Background(), []string{"file_1", "file_2"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
	assert.NotEmpty(t, f.store.ChunksForFile("file_2"))
}

func TestDocumentPageAttributionSurvivesRoundTrip(t *testing.T) {
	f := newDocServiceFixture(t)

	pages := []models.DocumentPage{
		{PageNumber: 1, Text: strings.Repeat("a", 120)},
		{PageNumber: 2, Text: strings.Repeat("b", 120)},
	}
	text := pages[0].Text + "\n\n" + pages[1].Text

	f.mock.ExpectExec(`INSERT INTO "documents"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	doc, err := f.svc.Register(context.Background(), "paged.pdf", text, pages)
	require.NoError(t, err)

	chunks := f.store.ChunksForFile(doc.ID)
	require.NotEmpty(t, chunks)
	assert.Equal(t, []int{1}, chunks[0].PageNumbers)
}
