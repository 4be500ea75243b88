package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tickerflow/tickerdesk/internal/model"
	"github.com/tickerflow/tickerdesk/internal/pagination"
)

// listResponse mirrors the cursor pagination envelope clients expect.
type listResponse[T any] struct {
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

func listHandler[T any](s *Server, list func(context.Context, model.ListQuery) (model.Page[T], error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := list(c.Request.Context(), parseListQuery(c))
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, newListResponse(c.Request, page))
	}
}

// parseListQuery reads page_size and cursor; every other parameter is a filter.
// A page_size that is not a positive integer falls back to the default.
func parseListQuery(c *gin.Context) model.ListQuery {
	values := c.Request.URL.Query()
	q := model.ListQuery{
		Cursor:  values.Get("cursor"),
		Filters: make(map[string]string, len(values)),
	}
	if n, err := strconv.Atoi(values.Get("page_size")); err == nil {
		q.PageSize = n
	}
	q.PageSize = pagination.ClampPageSize(q.PageSize)
	for k, v := range values {
		if k == "cursor" || k == "page_size" || len(v) == 0 {
			continue
		}
		q.Filters[k] = v[0]
	}
	return q
}

func newListResponse[T any](r *http.Request, page model.Page[T]) listResponse[T] {
	base := requestURL(r)
	resp := listResponse[T]{Results: page.Items}
	if resp.Results == nil {
		resp.Results = []T{}
	}
	if ref := pagination.Reference(base, page.NextCursor); ref != "" {
		resp.Next = &ref
	}
	if ref := pagination.Reference(base, page.PreviousCursor); ref != "" {
		resp.Previous = &ref
	}
	return resp
}

// requestURL reconstructs the absolute URL the client used.
func requestURL(r *http.Request) *url.URL {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(p, ",")[0]))
	}
	host := r.Host
	if h := r.Header.Get("X-Forwarded-Host"); h != "" {
		host = strings.TrimSpace(strings.Split(h, ",")[0])
	}
	return &url.URL{
		Scheme:   scheme,
		Host:     host,
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidCursor):
		c.JSON(http.StatusNotFound, gin.H{"detail": "Invalid cursor"})
	case errors.Is(err, model.ErrInvalidFilter):
		writeError(c, http.StatusBadRequest, "INVALID_FILTER", err.Error(), nil)
	case errors.Is(err, model.ErrNotFound):
		writeError(c, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, context.DeadlineExceeded):
		s.logger.Warn("query timed out", "path", c.Request.URL.Path, "err", err)
		writeError(c, http.StatusGatewayTimeout, "QUERY_TIMEOUT", "query timed out", nil)
	case errors.Is(err, context.Canceled):
		c.Status(499)
	default:
		s.logger.Error("list query failed", "path", c.Request.URL.Path, "err", err)
		writeError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "internal server error", nil)
	}
}

func writeError(c *gin.Context, status int, code, message string, details gin.H) {
	body := gin.H{"message": message, "code": code}
	if details != nil {
		body["details"] = details
	}
	c.JSON(status, gin.H{"error": body})
}

func upper(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }
