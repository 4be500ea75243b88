package socketrpc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/tickerflow/tickerdesk/internal/logging"
	"github.com/tickerflow/tickerdesk/internal/model"
)

const (
	// scannerInitBufSize is the initial buffer size for the per-connection scanner (1 MB).
	scannerInitBufSize = 1024 * 1024
	// scannerMaxTokenSize is the maximum token size the scanner will accept (10 MB).
	scannerMaxTokenSize = 10 * 1024 * 1024
)

// Server exposes a model.ListReader over a Unix domain socket using JSON-RPC 2.0.
type Server struct {
	socketPath string
	reader     model.ListReader
	logger     *log.Logger
	listener   net.Listener
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewServer creates a new socket RPC server. A nil logger discards output.
func NewServer(socketPath string, reader model.ListReader, logger *log.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		socketPath: socketPath,
		reader:     reader,
		logger:     logger.WithPrefix("socketrpc"),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start begins listening on the Unix socket and accepting connections.
func (s *Server) Start() error {
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0755); err != nil {
		return fmt.Errorf("socketrpc: mkdir: %w", err)
	}

	// Remove a stale socket left by a crashed server.
	if _, err := os.Stat(s.socketPath); err == nil {
		conn, dialErr := net.DialTimeout("unix", s.socketPath, 500*time.Millisecond)
		if dialErr != nil {
			os.Remove(s.socketPath)
		} else {
			conn.Close()
			return fmt.Errorf("socketrpc: another server is already listening on %s", s.socketPath)
		}
	}

	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("socketrpc: listen: %w", err)
	}
	s.listener = ln

	s.wg.Add(1)
	go s.acceptLoop()

	s.logger.Info("listening", "path", s.socketPath)
	return nil
}

// Stop closes the listener, cancels running queries, waits for connections
// to drain and removes the socket file.
func (s *Server) Stop() {
	s.cancel()
	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	os.Remove(s.socketPath)
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}
			s.logger.Warn("accept error", "err", err)
			continue
		}
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	// Unblock the scanner when the server stops.
	stop := context.AfterFunc(s.ctx, func() { conn.SetReadDeadline(time.Now()) })
	defer stop()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, scannerInitBufSize), scannerMaxTokenSize)
	encoder := json.NewEncoder(conn)

	for scanner.Scan() {
		var req Request
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			encoder.Encode(Response{JSONRPC: "2.0", Error: &RPCError{Code: codeParseError, Message: "parse error"}})
			continue
		}

		resp := s.dispatch(s.ctx, req)
		if err := encoder.Encode(resp); err != nil {
			return
		}
	}
}

func (s *Server) dispatch(ctx context.Context, req Request) Response {
	resp := Response{JSONRPC: "2.0", ID: req.ID}

	marshalResult := func(v any, err error) Response {
		if err != nil {
			resp.Error = appError(err)
			return resp
		}
		data, merr := json.Marshal(v)
		if merr != nil {
			resp.Error = &RPCError{Code: codeInternal, Message: merr.Error()}
			return resp
		}
		resp.Result = data
		return resp
	}

	invalidParams := func(err error) Response {
		resp.Error = &RPCError{Code: codeInvalidParams, Message: fmt.Sprintf("invalid params: %v", err)}
		return resp
	}

	var lp listParams
	switch req.Method {
	case "ListExchanges", "ListStocks", "ListIngestionRuns", "ListBulkQueueRuns":
		if len(req.Params) > 0 && string(req.Params) != "null" {
			if err := json.Unmarshal(req.Params, &lp); err != nil {
				return invalidParams(err)
			}
		}
	}

	switch req.Method {
	case "ListExchanges":
		return marshalResult(s.reader.ListExchanges(ctx, lp.Query))
	case "ListStocks":
		return marshalResult(s.reader.ListStocks(ctx, lp.Query))
	case "ListIngestionRuns":
		return marshalResult(s.reader.ListIngestionRuns(ctx, lp.Query))
	case "ListBulkQueueRuns":
		return marshalResult(s.reader.ListBulkQueueRuns(ctx, lp.Query))

	case "StockExists", "GetStock", "StockStatus":
		var p tickerParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return invalidParams(err)
		}
		if p.Ticker == "" {
			return invalidParams(errors.New("ticker is required"))
		}
		switch req.Method {
		case "GetStock":
			return marshalResult(s.reader.GetStock(ctx, p.Ticker))
		case "StockStatus":
			return marshalResult(s.reader.StockStatus(ctx, p.Ticker))
		}
		return marshalResult(s.reader.StockExists(ctx, p.Ticker))

	case "GetIngestionRun", "BulkQueueRunStats":
		var p idParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return invalidParams(err)
		}
		if p.ID == uuid.Nil {
			return invalidParams(errors.New("id is required"))
		}
		if req.Method == "GetIngestionRun" {
			return marshalResult(s.reader.GetIngestionRun(ctx, p.ID))
		}
		return marshalResult(s.reader.BulkQueueRunStats(ctx, p.ID))

	default:
		resp.Error = &RPCError{Code: codeMethodNotFound, Message: fmt.Sprintf("method not found: %s", req.Method)}
		return resp
	}
}

func appError(err error) *RPCError {
	switch {
	case errors.Is(err, model.ErrInvalidCursor):
		return &RPCError{Code: codeInvalidCursor, Message: err.Error()}
	case errors.Is(err, model.ErrInvalidFilter):
		return &RPCError{Code: codeInvalidFilter, Message: err.Error()}
	case errors.Is(err, model.ErrNotFound):
		return &RPCError{Code: codeNotFound, Message: err.Error()}
	default:
		return &RPCError{Code: codeApplication, Message: err.Error()}
	}
}
