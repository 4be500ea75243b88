package socketrpc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tickerflow/tickerdesk/internal/model"
)

var _ model.ListReader = (*Client)(nil)

// DefaultCallTimeout bounds a call whose context has no deadline.
const DefaultCallTimeout = 30 * time.Second

// Client implements model.ListReader over a Unix domain socket using
// JSON-RPC 2.0. Calls are serialized on one connection; a call abandoned
// through its context drops the connection and the next call redials.
type Client struct {
	socketPath string
	mu         sync.Mutex
	conn       net.Conn
	nextID     int
	scanner    *bufio.Scanner
	encoder    *json.Encoder
}

// Dial connects to the socket RPC server at the given path.
func Dial(socketPath string) (*Client, error) {
	c := &Client{socketPath: socketPath}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) connect() error {
	conn, err := net.DialTimeout("unix", c.socketPath, 5*time.Second)
	if err != nil {
		return fmt.Errorf("socketrpc: dial: %w", err)
	}
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, scannerInitBufSize), scannerMaxTokenSize)
	c.conn = conn
	c.scanner = scanner
	c.encoder = json.NewEncoder(conn)
	return nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) drop() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// call performs a JSON-RPC call and unmarshals the result into dest.
func (c *Client) call(ctx context.Context, method string, params any, dest any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if c.conn == nil {
		if err := c.connect(); err != nil {
			return err
		}
	}

	c.nextID++
	id := c.nextID

	paramsData, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("socketrpc: marshal params: %w", err)
	}
	req := Request{JSONRPC: "2.0", ID: id, Method: method, Params: paramsData}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(DefaultCallTimeout)
	}
	c.conn.SetDeadline(deadline)
	conn := c.conn
	stop := context.AfterFunc(ctx, func() { conn.SetDeadline(time.Now()) })
	defer stop()

	fail := func(op string, err error) error {
		c.drop()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("socketrpc: %s: %w", op, err)
	}

	if err := c.encoder.Encode(req); err != nil {
		return fail("send", err)
	}
	if !c.scanner.Scan() {
		err := c.scanner.Err()
		if err == nil {
			err = errors.New("connection closed")
		}
		return fail("read", err)
	}
	c.conn.SetDeadline(time.Time{})

	var resp Response
	if err := json.Unmarshal(c.scanner.Bytes(), &resp); err != nil {
		return fail("unmarshal response", err)
	}
	if resp.ID != id {
		return fail("read", fmt.Errorf("response id %d does not match request %d", resp.ID, id))
	}
	if resp.Error != nil {
		return resp.Error
	}
	if dest != nil {
		if err := json.Unmarshal(resp.Result, dest); err != nil {
			return fmt.Errorf("socketrpc: unmarshal result: %w", err)
		}
	}
	return nil
}

func (c *Client) ListExchanges(ctx context.Context, q model.ListQuery) (model.Page[model.Exchange], error) {
	var result model.Page[model.Exchange]
	err := c.call(ctx, "ListExchanges", listParams{Query: q}, &result)
	return result, err
}

func (c *Client) ListStocks(ctx context.Context, q model.ListQuery) (model.Page[model.Stock], error) {
	var result model.Page[model.Stock]
	err := c.call(ctx, "ListStocks", listParams{Query: q}, &result)
	return result, err
}

func (c *Client) ListIngestionRuns(ctx context.Context, q model.ListQuery) (model.Page[model.IngestionRun], error) {
	var result model.Page[model.IngestionRun]
	err := c.call(ctx, "ListIngestionRuns", listParams{Query: q}, &result)
	return result, err
}

func (c *Client) ListBulkQueueRuns(ctx context.Context, q model.ListQuery) (model.Page[model.BulkQueueRun], error) {
	var result model.Page[model.BulkQueueRun]
	err := c.call(ctx, "ListBulkQueueRuns", listParams{Query: q}, &result)
	return result, err
}

func (c *Client) StockExists(ctx context.Context, ticker string) (bool, error) {
	var result bool
	err := c.call(ctx, "StockExists", tickerParams{Ticker: ticker}, &result)
	return result, err
}

func (c *Client) GetStock(ctx context.Context, ticker string) (model.Stock, error) {
	var result model.Stock
	err := c.call(ctx, "GetStock", tickerParams{Ticker: ticker}, &result)
	return result, err
}

func (c *Client) StockStatus(ctx context.Context, ticker string) (model.StockStatus, error) {
	var result model.StockStatus
	err := c.call(ctx, "StockStatus", tickerParams{Ticker: ticker}, &result)
	return result, err
}

func (c *Client) GetIngestionRun(ctx context.Context, id uuid.UUID) (model.IngestionRun, error) {
	var result model.IngestionRun
	err := c.call(ctx, "GetIngestionRun", idParams{ID: id}, &result)
	return result, err
}

func (c *Client) BulkQueueRunStats(ctx context.Context, id uuid.UUID) (model.BulkQueueRunStats, error) {
	var result model.BulkQueueRunStats
	err := c.call(ctx, "BulkQueueRunStats", idParams{ID: id}, &result)
	return result, err
}
