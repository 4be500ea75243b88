package tui

import (
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/tickerflow/tickerdesk/internal/model"
)

const timeLayout = "2006-01-02 15:04"

func formatTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format(timeLayout)
}

func shortID(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()[:8]
}

func stockColumns(loc *time.Location) map[string]Column[model.Stock] {
	return map[string]Column[model.Stock]{
		"id":       {Title: "ID", Width: 8, Value: func(s model.Stock) string { return shortID(s.ID) }},
		"ticker":   {Title: "Ticker", Width: 8, Value: func(s model.Stock) string { return s.Ticker }},
		"name":     {Title: "Name", Value: func(s model.Stock) string { return s.Name }},
		"sector":   {Title: "Sector", Width: 22, Value: func(s model.Stock) string { return s.Sector }},
		"industry": {Title: "Industry", Width: 24, Value: func(s model.Stock) string { return s.Industry }},
		"exchange": {Title: "Exchange", Width: 9, Value: func(s model.Stock) string { return s.Exchange }},
		"country":  {Title: "Country", Width: 7, Value: func(s model.Stock) string { return s.Country }},
		"created":  {Title: "Created", Width: len(timeLayout), Value: func(s model.Stock) string { return formatTime(s.CreatedAt, loc) }},
		"updated":  {Title: "Updated", Width: len(timeLayout), Value: func(s model.Stock) string { return formatTime(s.UpdatedAt, loc) }},
	}
}

func runColumns(loc *time.Location) map[string]Column[model.IngestionRun] {
	return map[string]Column[model.IngestionRun]{
		"id":     {Title: "ID", Width: 8, Value: func(r model.IngestionRun) string { return shortID(r.ID) }},
		"ticker": {Title: "Ticker", Width: 8, Value: func(r model.IngestionRun) string { return r.Ticker }},
		"state": {
			Title: "State",
			Width: 16,
			Value: func(r model.IngestionRun) string { return string(r.State) },
			Style: func(r model.IngestionRun) lipgloss.Style { return stateStyles[string(r.State)] },
		},
		"requested-by": {Title: "Requested by", Width: 14, Value: func(r model.IngestionRun) string { return r.RequestedBy }},
		"bulk-run": {Title: "Bulk run", Width: 8, Value: func(r model.IngestionRun) string {
			if r.BulkQueueRunID == nil {
				return ""
			}
			return shortID(*r.BulkQueueRunID)
		}},
		"error":   {Title: "Error", Value: func(r model.IngestionRun) string { return r.ErrorMessage }},
		"created": {Title: "Created", Width: len(timeLayout), Value: func(r model.IngestionRun) string { return formatTime(r.CreatedAt, loc) }},
		"updated": {Title: "Updated", Width: len(timeLayout), Value: func(r model.IngestionRun) string { return formatTime(r.UpdatedAt, loc) }},
	}
}

func bulkRunColumns(loc *time.Location) map[string]Column[model.BulkQueueRun] {
	count := func(title string, v func(model.BulkQueueRun) int) Column[model.BulkQueueRun] {
		return Column[model.BulkQueueRun]{Title: title, Width: max(6, len(title)), Value: func(r model.BulkQueueRun) string { return strconv.Itoa(v(r)) }}
	}
	optTime := func(t *time.Time, none string) string {
		if t == nil {
			return none
		}
		return formatTime(*t, loc)
	}
	return map[string]Column[model.BulkQueueRun]{
		"id":           {Title: "ID", Width: 8, Value: func(r model.BulkQueueRun) string { return shortID(r.ID) }},
		"requested-by": {Title: "Requested by", Value: func(r model.BulkQueueRun) string { return r.RequestedBy }},
		"total":        count("Total", func(r model.BulkQueueRun) int { return r.TotalStocks }),
		"queued":       count("Queued", func(r model.BulkQueueRun) int { return r.QueuedCount }),
		"skipped":      count("Skipped", func(r model.BulkQueueRun) int { return r.SkippedCount }),
		"errors": {
			Title: "Errors",
			Width: 6,
			Value: func(r model.BulkQueueRun) string { return strconv.Itoa(r.ErrorCount) },
			Style: func(r model.BulkQueueRun) lipgloss.Style {
				if r.ErrorCount > 0 {
					return errorStyle
				}
				return lipgloss.NewStyle()
			},
		},
		"created":   {Title: "Created", Width: len(timeLayout), Value: func(r model.BulkQueueRun) string { return formatTime(r.CreatedAt, loc) }},
		"started":   {Title: "Started", Width: len(timeLayout), Value: func(r model.BulkQueueRun) string { return optTime(r.StartedAt, "") }},
		"completed": {Title: "Completed", Width: len(timeLayout), Value: func(r model.BulkQueueRun) string { return optTime(r.CompletedAt, "running") }},
	}
}

func exchangeColumns(loc *time.Location) map[string]Column[model.Exchange] {
	return map[string]Column[model.Exchange]{
		"id":      {Title: "ID", Width: 36, Value: func(e model.Exchange) string { return e.ID.String() }},
		"name":    {Title: "Name", Value: func(e model.Exchange) string { return e.Name }},
		"created": {Title: "Created", Width: len(timeLayout), Value: func(e model.Exchange) string { return formatTime(e.CreatedAt, loc) }},
	}
}
