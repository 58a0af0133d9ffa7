package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/aihub/answerai-go/internal/search"
)

// SearchController 会话检索控制器
type SearchController struct {
	BaseController
	engine *search.Engine
}

func (c *SearchController) Prepare() {
	if c.engine == nil {
		c.engine = registry.SearchEngine
	}
}

// Search 全文检索历史会话
// GET /api/search?q=...&type=...&range=...&from=...&to=...&conversations=a,b
func (c *SearchController) Search() {
	query := c.GetString("q")
	if strings.TrimSpace(query) == "" {
		c.JSONError(http.StatusBadRequest, "query parameter q is required")
		return
	}

	filters := search.Filters{
		MessageType: c.GetString("type", search.MessageTypeAll),
		DateRange:   c.GetString("range", search.DateRangeAll),
	}
	if ids := c.GetString("conversations"); ids != "" {
		filters.ConversationIDs = strings.Split(ids, ",")
	}
	if from := c.GetString("from"); from != "" {
		t, err := time.ParseInLocation("2006-01-02", from, time.Local)
		if err != nil {
			c.JSONError(http.StatusBadRequest, "invalid from date, expected YYYY-MM-DD")
			return
		}
		filters.CustomDateFrom = t
	}
	if to := c.GetString("to"); to != "" {
		t, err := time.ParseInLocation("2006-01-02", to, time.Local)
		if err != nil {
			c.JSONError(http.StatusBadRequest, "invalid to date, expected YYYY-MM-DD")
			return
		}
		filters.CustomDateTo = t
	}

	results, err := c.engine.Search(query, filters)
	if err != nil {
		c.JSONError(http.StatusInternalServerError, "Search failed")
		return
	}

	type highlightedResult struct {
		search.Result
		Highlights []search.Span `json:"highlights"`
	}
	payload := make([]highlightedResult, 0, len(results))
	for _, r := range results {
		payload = append(payload, highlightedResult{
			Result:     r,
			Highlights: search.Highlight(r.Preview, query),
		})
	}

	c.JSONSuccess(map[string]interface{}{
		"query":   query,
		"total":   len(payload),
		"results": payload,
	})
}
