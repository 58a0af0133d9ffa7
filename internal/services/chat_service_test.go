package services

import (
	"context"
	"testing"

	apperrors "github.com/aihub/answerai-go/internal/errors"
	"github.com/aihub/answerai-go/internal/knowledge"
	"github.com/aihub/answerai-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAskRejectsEmptyQuestion(t *testing.T) {
	svc := NewChatService(nil, nil, nil, nil, testAIConfig())

	_, err := svc.Ask(context.Background(), "conv_1", "   ")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidationFailed))
}

func TestIsComparisonQuery(t *testing.T) {
	assert.True(t, isComparisonQuery("Compare the two reports"))
	assert.True(t, isComparisonQuery("what is the difference between them?"))
	assert.True(t, isComparisonQuery("report A vs report B"))
	assert.False(t, isComparisonQuery("summarize the report"))
	assert.False(t, isComparisonQuery("what does chapter 2 say?"))
}

func TestBuildSystemPromptSingleDocument(t *testing.T) {
	retrieval := &knowledge.RetrievalResult{Context: "=== DOCUMENT: a.pdf ==="}

	prompt := buildSystemPrompt(retrieval, []string{"a.pdf"}, false)
	assert.Contains(t, prompt, "1 active document: a.pdf")
	assert.Contains(t, prompt, "=== DOCUMENT: a.pdf ===")
	assert.NotContains(t, prompt, "comparison")
}

func TestBuildSystemPromptComparison(t *testing.T) {
	retrieval := &knowledge.RetrievalResult{Context: "ctx"}

	prompt := buildSystemPrompt(retrieval, []string{"a.pdf", "b.pdf"}, true)
	assert.Contains(t, prompt, "2 active documents: a.pdf, b.pdf")
	assert.Contains(t, prompt, "comparison")

	// 单文档时比较指令不生效
	prompt = buildSystemPrompt(retrieval, []string{"a.pdf"}, true)
	assert.NotContains(t, prompt, "comparison")
}

func TestFileNamesFromSourcesDedupesInOrder(t *testing.T) {
	names := fileNamesFromSources([]knowledge.Source{
		{FileName: "b.pdf"},
		{FileName: "a.pdf"},
		{FileName: "b.pdf"},
	})
	assert.Equal(t, []string{"b.pdf", "a.pdf"}, names)
}

func TestRecentHistoryWindow(t *testing.T) {
	msgs := make([]models.ConversationMessage, 15)
	for i := range msgs {
		msgs[i] = models.ConversationMessage{ID: uint(i + 1)}
	}

	got := recentHistory(msgs, 10)
	require.Len(t, got, 10)
	assert.Equal(t, uint(6), got[0].ID)
	assert.Equal(t, uint(15), got[9].ID)

	short := msgs[:3]
	assert.Len(t, recentHistory(short, 10), 3)
}
