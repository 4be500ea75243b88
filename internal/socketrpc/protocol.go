package socketrpc

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/tickerflow/tickerdesk/internal/model"
)

// JSON-RPC 2.0 Method Reference
//
// The socket RPC server exposes model.ListReader over a Unix domain socket,
// one newline-delimited JSON object per request and response.
//
//   Method               Params                                         Result
//   ─────────────────    ─────────────────────────────────────────────  ─────────────────────────
//   ListExchanges        {Query: {PageSize, Cursor, Filters}}           Page[Exchange]
//   ListStocks           {Query: {PageSize, Cursor, Filters}}           Page[Stock]
//   ListIngestionRuns    {Query: {PageSize, Cursor, Filters}}           Page[IngestionRun]
//   ListBulkQueueRuns    {Query: {PageSize, Cursor, Filters}}           Page[BulkQueueRun]
//   StockExists          {Ticker: string}                               bool
//   GetStock             {Ticker: string}                               Stock
//   StockStatus          {Ticker: string}                               StockStatus
//   GetIngestionRun      {ID: uuid}                                     IngestionRun
//   BulkQueueRunStats    {ID: uuid}                                     BulkQueueRunStats
//
// List methods accept empty or null params and return the first page with
// the default page size.
//
// Error codes follow JSON-RPC 2.0:
//   -32700  Parse error (malformed JSON)
//   -32601  Method not found
//   -32602  Invalid params
//   -32603  Internal error (marshal failure)
//   -32000  Application error (query failure)
//   -32001  Invalid cursor
//   -32002  Invalid filter value
//   -32004  Record not found

const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternal       = -32603
	codeApplication    = -32000
	codeInvalidCursor  = -32001
	codeInvalidFilter  = -32002
	codeNotFound       = -32004
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string { return e.Message }

// Unwrap maps application error codes back to the model sentinels.
func (e *RPCError) Unwrap() error {
	switch e.Code {
	case codeInvalidCursor:
		return model.ErrInvalidCursor
	case codeInvalidFilter:
		return model.ErrInvalidFilter
	case codeNotFound:
		return model.ErrNotFound
	}
	return nil
}

type listParams struct {
	Query model.ListQuery
}

type tickerParams struct {
	Ticker string
}

type idParams struct {
	ID uuid.UUID
}

// DefaultSocketPath returns the default Unix socket path.
// It prefers $XDG_RUNTIME_DIR/tickerdesk/tickerdesk.sock, falling back to
// ~/.local/state/tickerdesk/tickerdesk.sock.
func DefaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "tickerdesk", "tickerdesk.sock")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "/tmp/tickerdesk.sock"
	}
	return filepath.Join(home, ".local", "state", "tickerdesk", "tickerdesk.sock")
}
