package http

import (
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"matchbook/internal/api/dto"
	"matchbook/internal/core"
	"matchbook/internal/feed"
	"matchbook/internal/middleware"
	"matchbook/internal/port"
	"matchbook/internal/wire"
)

// Server is the HTTP boundary: it feeds raw request envelopes into the
// order event processor and serves the read paths (book, trades, live
// stream).
type Server struct {
	log      *log.Logger
	proc     *wire.Processor
	module   *core.Module
	router   *ReplyRouter
	cache    port.Cache
	journal  port.Journal
	events   *feed.EventSink
	upgrader websocket.Upgrader
}

func NewServer(
	logger *log.Logger,
	proc *wire.Processor,
	module *core.Module,
	router *ReplyRouter,
	cache port.Cache,
	journal port.Journal,
	events *feed.EventSink,
) *Server {
	return &Server{
		log:     logger,
		proc:    proc,
		module:  module,
		router:  router,
		cache:   cache,
		journal: journal,
		events:  events,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (s *Server) Run(addr string) error {
	rl := middleware.NewRateLimiter(time.Millisecond * 100)
	return s.routes(rl.Middleware()).Run(addr)
}

func (s *Server) routes(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.Default()
	r.Use(mw...)

	r.POST("/v1/requests", s.handleRequest)
	r.GET("/v1/orderbook", s.getOrderbook)
	r.GET("/v1/orders/:id/trades", s.getTrades)
	r.GET("/v1/stream", s.stream)

	return r
}

// handleRequest accepts one {"Action": ..., "Data": {...}} envelope and
// answers with everything the engine produced for it.
func (s *Server) handleRequest(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dest := uuid.NewString()
	sess := s.router.Open(dest)
	defer s.router.Close(dest)

	_ = s.proc.Process(c.Request.Context(), dest, payload)

	resp := dto.RequestResponse{}
	for _, a := range sess.Acks {
		resp.Acks = append(resp.Acks, dto.FromReply(a))
	}
	for _, t := range sess.Trades {
		resp.Trades = append(resp.Trades, dto.FromTrade(t))
	}
	for _, e := range sess.Errors {
		resp.Errors = append(resp.Errors, dto.FromError(e))
	}
	if sess.Book != nil {
		resp.Book = dto.FromBook(sess.Book)
	}

	status := http.StatusOK
	if len(resp.Errors) > 0 && len(resp.Acks) == 0 && resp.Book == nil {
		status = http.StatusBadRequest
	}
	c.JSON(status, resp)
}

func (s *Server) getOrderbook(c *gin.Context) {
	instrument := c.Query("instrument")
	if instrument == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "instrument required"})
		return
	}

	if s.cache != nil {
		if snap, err := s.cache.GetBook(c.Request.Context(), instrument); err == nil && snap != nil {
			c.JSON(http.StatusOK, dto.FromBook(snap))
			return
		}
	}

	eng, ok := s.module.Engine(instrument)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown instrument: " + instrument})
		return
	}
	c.JSON(http.StatusOK, dto.FromBook(eng.Snapshot()))
}

func (s *Server) getTrades(c *gin.Context) {
	if s.journal == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "trade journal not configured"})
		return
	}
	trades, err := s.journal.TradesForOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]dto.Trade, 0, len(trades))
	for _, t := range trades {
		out = append(out, dto.FromTrade(*t))
	}
	c.JSON(http.StatusOK, gin.H{"trades": out})
}

// stream upgrades to a websocket and forwards the live trade feed.
func (s *Server) stream(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Printf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	sub := s.events.Trades().Subscribe(64)
	defer s.events.Trades().Unsubscribe(sub)

	for t := range sub.Ch() {
		if err := conn.WriteJSON(dto.FromTrade(t)); err != nil {
			return
		}
	}
}
