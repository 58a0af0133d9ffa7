package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/aihub/answerai-go/internal/config"
	apperrors "github.com/aihub/answerai-go/internal/errors"
	"github.com/aihub/answerai-go/internal/knowledge"
	"github.com/aihub/answerai-go/internal/logger"
	"github.com/aihub/answerai-go/internal/models"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// historyWindow 送入模型的历史消息条数上限
const historyWindow = 10

var comparisonPattern = regexp.MustCompile(`(?i)\b(compare|comparison|difference|differences|versus|vs\.?|contrast)\b`)

// AskResponse 问答结果
type AskResponse struct {
	ConversationID string             `json:"conversation_id"`
	Answer         string             `json:"answer"`
	Sources        []knowledge.Source `json:"sources"`
}

// ChatService 问答服务：检索增强生成的编排层
type ChatService struct {
	conversations *ConversationService
	documents     *DocumentService
	retriever     *knowledge.Retriever
	client        *openai.Client
	ai            config.AIConfig
}

// NewChatService 创建问答服务
func NewChatService(conversations *ConversationService, documents *DocumentService, retriever *knowledge.Retriever, client *openai.Client, ai config.AIConfig) *ChatService {
	return &ChatService{
		conversations: conversations,
		documents:     documents,
		retriever:     retriever,
		client:        client,
		ai:            ai,
	}
}

// Ask 基于对话的活跃文档回答问题。先保证文档已索引，再检索相关分块，
// 最后将上下文与近期历史一起送入模型，问答双方消息落库
func (s *ChatService) Ask(ctx context.Context, conversationID, question string) (*AskResponse, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, apperrors.NewValidationError("question is required")
	}
	if s.client == nil {
		return nil, apperrors.NewSystemError("AI provider not configured")
	}

	conv, err := s.conversations.Get(conversationID)
	if err != nil {
		return nil, err
	}

	fileIDs := conv.FileIDs()
	if len(fileIDs) == 0 {
		return nil, apperrors.NewNoIndexedContentError()
	}
	if err := s.documents.EnsureIndexedAll(ctx, fileIDs); err != nil {
		logger.Warn("Some documents failed to index before retrieval", zap.Error(err))
	}

	retrieval, err := s.retriever.Retrieve(ctx, question, fileIDs)
	if err != nil {
		return nil, err
	}

	answer, err := s.generate(ctx, conv, question, retrieval)
	if err != nil {
		return nil, err
	}

	if err := s.conversations.AppendMessages(conv,
		models.ConversationMessage{Role: "user", Content: question},
		models.ConversationMessage{Role: "assistant", Content: answer},
	); err != nil {
		return nil, err
	}

	return &AskResponse{
		ConversationID: conv.ID,
		Answer:         answer,
		Sources:        retrieval.Sources,
	}, nil
}

func (s *ChatService) generate(ctx context.Context, conv *models.Conversation, question string, retrieval *knowledge.RetrievalResult) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: buildSystemPrompt(retrieval, fileNamesFromSources(retrieval.Sources), isComparisonQuery(question)),
		},
	}
	for _, m := range recentHistory(conv.Messages, historyWindow) {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: question,
	})

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.ai.ChatModel,
		Messages:    messages,
		MaxTokens:   s.ai.MaxTokens,
		Temperature: float32(s.ai.Temperature),
	})
	if err != nil {
		return "", apperrors.NewGenerationError(err)
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.NewGenerationError(fmt.Errorf("empty completion response"))
	}
	return resp.Choices[0].Message.Content, nil
}

// buildSystemPrompt 组装系统提示。多文档的比较类问题会额外要求逐文档对照
func buildSystemPrompt(retrieval *knowledge.RetrievalResult, fileNames []string, comparison bool) string {
	var b strings.Builder
	b.WriteString("You are a helpful assistant that answers questions about the user's documents. ")
	if len(fileNames) == 1 {
		fmt.Fprintf(&b, "The user has 1 active document: %s. ", fileNames[0])
	} else {
		fmt.Fprintf(&b, "The user has %d active documents: %s. ", len(fileNames), strings.Join(fileNames, ", "))
	}
	b.WriteString("Answer using only the excerpts below. If the excerpts do not contain the answer, say so instead of guessing.")
	if comparison && len(fileNames) > 1 {
		b.WriteString(" The user is asking for a comparison. Address each document separately, then summarize the differences.")
	}
	b.WriteString("\n")
	b.WriteString(retrieval.Context)
	return b.String()
}

// isComparisonQuery 判断是否为跨文档比较类问题
func isComparisonQuery(question string) bool {
	return comparisonPattern.MatchString(question)
}

// fileNamesFromSources 按出处顺序去重提取文档名
func fileNamesFromSources(sources []knowledge.Source) []string {
	seen := make(map[string]bool, len(sources))
	var names []string
	for _, src := range sources {
		if !seen[src.FileName] {
			seen[src.FileName] = true
			names = append(names, src.FileName)
		}
	}
	return names
}

func recentHistory(msgs []models.ConversationMessage, limit int) []models.ConversationMessage {
	if len(msgs) <= limit {
		return msgs
	}
	return msgs[len(msgs)-limit:]
}
