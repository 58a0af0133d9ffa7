package search

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/aihub/answerai-go/internal/logger"
	"github.com/aihub/answerai-go/internal/metrics"
	"go.uber.org/zap"
)

// DefaultPreviewLength 结果预览的默认截断长度（字符数）
const DefaultPreviewLength = 150

// 消息类型过滤值
const (
	MessageTypeAll  = "all"
	MessageTypeUser = "user"
	MessageTypeAI   = "ai"
)

// 时间范围过滤值
const (
	DateRangeAll    = "all"
	DateRange7Days  = "7d"
	DateRange30Days = "30d"
	DateRange90Days = "90d"
	DateRangeCustom = "custom"
)

// Filters 检索过滤条件，零值表示不过滤
type Filters struct {
	ConversationIDs []string  `json:"conversation_ids,omitempty"`
	MessageType     string    `json:"message_type,omitempty"`
	DateRange       string    `json:"date_range,omitempty"`
	CustomDateFrom  time.Time `json:"custom_date_from,omitempty"`
	CustomDateTo    time.Time `json:"custom_date_to,omitempty"`
}

// Message 参与检索的单条消息
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationData 参与检索的会话快照
type ConversationData struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Messages []Message `json:"messages"`
}

// Result 单条命中结果
type Result struct {
	ConversationID    string    `json:"conversation_id"`
	ConversationTitle string    `json:"conversation_title"`
	MessageIndex      int       `json:"message_index"`
	Message           Message   `json:"message"`
	MatchCount        int       `json:"match_count"`
	Preview           string    `json:"preview"`
	Timestamp         time.Time `json:"timestamp"`
}

// Source 提供待检索的会话数据
type Source interface {
	ConversationsInOrder() ([]ConversationData, error)
}

// Engine 会话全文检索引擎。查询词全部命中才算匹配，
// 结果按命中次数降序、时间降序排列
type Engine struct {
	source        Source
	cache         *Cache
	previewLength int
	now           func() time.Time
}

// NewEngine 创建检索引擎
func NewEngine(source Source, cache *Cache, previewLength int) *Engine {
	if previewLength <= 0 {
		previewLength = DefaultPreviewLength
	}
	return &Engine{
		source:        source,
		cache:         cache,
		previewLength: previewLength,
		now:           time.Now,
	}
}

// Search 执行检索。空查询返回空结果，结果走FIFO缓存
func (e *Engine) Search(query string, filters Filters) ([]Result, error) {
	terms := splitTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}

	cacheKey := buildCacheKey(query, filters)
	if e.cache != nil {
		if results, ok := e.cache.Get(cacheKey); ok {
			metrics.SearchCacheHits.Inc()
			return results, nil
		}
		metrics.SearchCacheMisses.Inc()
	}

	conversations, err := e.source.ConversationsInOrder()
	if err != nil {
		return nil, err
	}

	idFilter := makeIDSet(filters.ConversationIDs)
	roleFilter := normalizeRole(filters.MessageType)
	fromBound, toBound, bounded := e.dateBounds(filters)

	var results []Result
	for _, conv := range conversations {
		if idFilter != nil && !idFilter[conv.ID] {
			continue
		}
		for i, msg := range conv.Messages {
			if roleFilter != "" && msg.Role != roleFilter {
				continue
			}
			if bounded && (msg.Timestamp.Before(fromBound) || msg.Timestamp.After(toBound)) {
				continue
			}
			count := matchCount(msg.Content, terms)
			if count == 0 {
				continue
			}
			results = append(results, Result{
				ConversationID:    conv.ID,
				ConversationTitle: conv.Title,
				MessageIndex:      i,
				Message:           msg,
				MatchCount:        count,
				Preview:           makePreview(msg.Content, e.previewLength),
				Timestamp:         msg.Timestamp,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].MatchCount != results[j].MatchCount {
			return results[i].MatchCount > results[j].MatchCount
		}
		return results[i].Timestamp.After(results[j].Timestamp)
	})

	if e.cache != nil {
		e.cache.Put(cacheKey, results)
	}

	logger.Debug("Search completed",
		zap.String("query", query),
		zap.Int("results", len(results)))
	return results, nil
}

// splitTerms 小写化后按空白切词
func splitTerms(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// matchCount 全部词命中才返回非零；计数允许重叠出现
func matchCount(content string, terms []string) int {
	lower := strings.ToLower(content)
	total := 0
	for _, term := range terms {
		count := countOccurrences(lower, term)
		if count == 0 {
			return 0
		}
		total += count
	}
	return total
}

// countOccurrences 统计子串出现次数，匹配位置每次只前进一个字节以允许重叠
func countOccurrences(s, sub string) int {
	count := 0
	for i := 0; ; {
		idx := strings.Index(s[i:], sub)
		if idx < 0 {
			return count
		}
		count++
		i += idx + 1
	}
}

func makeIDSet(ids []string) map[string]bool {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// normalizeRole 过滤值到存储角色的映射，"ai"对应assistant消息
func normalizeRole(messageType string) string {
	switch messageType {
	case MessageTypeUser:
		return "user"
	case MessageTypeAI:
		return "assistant"
	default:
		return ""
	}
}

// dateBounds 计算过滤时间窗。custom取本地时区的整天边界（含端点）
func (e *Engine) dateBounds(filters Filters) (from, to time.Time, bounded bool) {
	now := e.now()
	switch filters.DateRange {
	case DateRange7Days:
		return now.AddDate(0, 0, -7), now, true
	case DateRange30Days:
		return now.AddDate(0, 0, -30), now, true
	case DateRange90Days:
		return now.AddDate(0, 0, -90), now, true
	case DateRangeCustom:
		from = startOfDay(filters.CustomDateFrom)
		to = endOfDay(filters.CustomDateTo)
		if filters.CustomDateFrom.IsZero() {
			from = time.Time{}
		}
		if filters.CustomDateTo.IsZero() {
			to = now
		}
		return from, to, true
	default:
		return time.Time{}, time.Time{}, false
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// makePreview 按字符截断生成预览
func makePreview(content string, limit int) string {
	runes := []rune(content)
	if len(runes) <= limit {
		return content
	}
	return string(runes[:limit]) + "..."
}

// buildCacheKey 序列化查询与过滤条件作为缓存键
func buildCacheKey(query string, filters Filters) string {
	data, err := json.Marshal(filters)
	if err != nil {
		return query
	}
	return strings.ToLower(query) + "|" + string(data)
}
