package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tickerflow/tickerdesk/internal/model"
)

// notFound describes the 404 a detail route answers with.
type notFound struct {
	code    string
	message string
	details gin.H
}

// detail writes v, or maps ErrNotFound to nf and anything else through fail.
func detail[T any](s *Server, c *gin.Context, v T, err error, nf notFound) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, v)
	case errors.Is(err, model.ErrNotFound):
		writeError(c, http.StatusNotFound, nf.code, nf.message, nf.details)
	default:
		s.fail(c, err)
	}
}

// uuidParam parses the path parameter name, answering 400 INVALID_UUID
// when it is malformed.
func uuidParam(c *gin.Context, name, what string) (uuid.UUID, bool) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_UUID", "Invalid "+what+" ID format: '"+raw+"'", gin.H{name: raw})
		return uuid.Nil, false
	}
	return id, true
}

func stockNotFound(ticker string) notFound {
	t := upper(ticker)
	return notFound{"STOCK_NOT_FOUND", "Stock with ticker '" + t + "' not found", gin.H{"ticker": t}}
}

func (s *Server) handleTicker(c *gin.Context) {
	ticker := c.Param("ticker")
	st, err := s.reader.GetStock(c.Request.Context(), ticker)
	detail(s, c, st, err, stockNotFound(ticker))
}

func (s *Server) handleTickerStatus(c *gin.Context) {
	ticker := c.Param("ticker")
	status, err := s.reader.StockStatus(c.Request.Context(), ticker)
	detail(s, c, status, err, stockNotFound(ticker))
}

func (s *Server) handleRun(c *gin.Context) {
	id, ok := uuidParam(c, "run_id", "run")
	if !ok {
		return
	}
	run, err := s.reader.GetIngestionRun(c.Request.Context(), id)
	detail(s, c, run, err, notFound{"RUN_NOT_FOUND", "Run with ID '" + id.String() + "' not found", gin.H{"run_id": id.String()}})
}

func (s *Server) handleBulkRunStats(c *gin.Context) {
	id, ok := uuidParam(c, "bulk_queue_run_id", "bulk queue run")
	if !ok {
		return
	}
	stats, err := s.reader.BulkQueueRunStats(c.Request.Context(), id)
	detail(s, c, stats, err, notFound{
		"BULK_QUEUE_RUN_NOT_FOUND",
		"Bulk queue run with ID '" + id.String() + "' not found",
		gin.H{"bulk_queue_run_id": id.String()},
	})
}
