// Package httpserver serves the catalog's list and detail endpoints over HTTP.
package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"github.com/tickerflow/tickerdesk/internal/logging"
	"github.com/tickerflow/tickerdesk/internal/model"
)

// Options configures a Server.
type Options struct {
	Addr           string
	AllowedOrigins []string
	RateLimit      float64 // requests per second, 0 disables limiting
	RateBurst      int
	Logger         *log.Logger
}

// Server provides the HTTP list API.
type Server struct {
	opts      Options
	reader    model.ListReader
	logger    *log.Logger
	limiter   *rate.Limiter
	server    *http.Server
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time

	mu       sync.Mutex
	listener net.Listener
}

// NewServer creates a new HTTP API server backed by reader.
func NewServer(opts Options, reader model.ListReader) *Server {
	if opts.Addr == "" {
		opts.Addr = "0.0.0.0:8080"
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = int(opts.RateLimit) + 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		opts:      opts,
		reader:    reader,
		logger:    logger.WithPrefix("http"),
		limiter:   limiter,
		ctx:       ctx,
		cancel:    cancel,
		startTime: time.Now(),
	}
}

// Handler returns the routed API wrapped in CORS handling.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	if s.limiter != nil {
		r.Use(s.rateLimit())
	}

	api := r.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/exchanges", listHandler(s, s.reader.ListExchanges))
	api.GET("/tickers", listHandler(s, s.reader.ListStocks))
	api.GET("/tickers/:ticker", s.handleTicker)
	api.GET("/tickers/:ticker/status", s.handleTickerStatus)
	api.GET("/runs", listHandler(s, s.reader.ListIngestionRuns))
	api.GET("/runs/ticker/:ticker", s.handleTickerRuns)
	api.GET("/runs/:run_id", s.handleRun)
	api.GET("/bulk-queue-runs", listHandler(s, s.reader.ListBulkQueueRuns))
	api.GET("/bulk-queue-runs/:bulk_queue_run_id/stats", s.handleBulkRunStats)

	origins := s.opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}).Handler(r)
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	s.server = &http.Server{
		Handler:           s.Handler(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.startTime = time.Now()
	s.logger.Info("listening", "addr", listener.Addr().String())

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("serve failed", "err", err)
		}
	}()
	return nil
}

// Addr returns the bound address once Start has succeeded.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return s.opts.Addr
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(s.startTime).Round(time.Second).String(),
	})
}

func (s *Server) handleTickerRuns(c *gin.Context) {
	ticker := c.Param("ticker")
	ok, err := s.reader.StockExists(c.Request.Context(), ticker)
	if err != nil {
		s.fail(c, err)
		return
	}
	if !ok {
		writeError(c, http.StatusNotFound, "STOCK_NOT_FOUND", "Stock with ticker '"+upper(ticker)+"' not found", gin.H{"ticker": upper(ticker)})
		return
	}

	q := parseListQuery(c)
	q.Filters["ticker"] = ticker
	page, err := s.reader.ListIngestionRuns(c.Request.Context(), q)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newListResponse(c.Request, page))
}
