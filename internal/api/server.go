package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"crypto-mentor-bot/config"
	"crypto-mentor-bot/internal/bot"
	"crypto-mentor-bot/internal/database"
	"crypto-mentor-bot/internal/events"
	"crypto-mentor-bot/internal/logging"
	"crypto-mentor-bot/internal/market"
	"crypto-mentor-bot/internal/strategy"
	"crypto-mentor-bot/internal/trader"
)

// Server exposes the bot over HTTP and WebSocket.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	hub        *WSHub

	cfg          *config.Config
	engine       *market.Engine
	orchestrator *strategy.Orchestrator
	trader       *trader.PaperTrader
	bot          *bot.TradingBot
	repo         *database.Repository // nil when the database is disabled
	bus          *events.EventBus
	log          *logging.Logger

	mu sync.Mutex // guards strategy config updates
}

// NewServer wires the API server. repo may be nil when persistence is
// disabled; the handlers fall back to in-memory state.
func NewServer(
	cfg *config.Config,
	engine *market.Engine,
	orch *strategy.Orchestrator,
	paperTrader *trader.PaperTrader,
	tradingBot *bot.TradingBot,
	repo *database.Repository,
	bus *events.EventBus,
	log *logging.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	origins := strings.Split(cfg.ServerConfig.AllowedOrigins, ",")
	if len(origins) == 1 && strings.TrimSpace(origins[0]) == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		corsConfig.AllowOrigins = origins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type"}
	router.Use(cors.New(corsConfig))

	s := &Server{
		router:       router,
		cfg:          cfg,
		engine:       engine,
		orchestrator: orch,
		trader:       paperTrader,
		bot:          tradingBot,
		repo:         repo,
		bus:          bus,
		log:          log.WithComponent("api"),
	}

	s.hub = NewWSHub(s.log)
	go s.hub.Run()
	bus.SubscribeAll(func(event events.Event) {
		s.hub.BroadcastEvent(event)
	})

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleRoot)
	s.router.GET("/ws", s.handleWebSocket)

	api := s.router.Group("/api")
	{
		api.GET("/dashboard", s.handleDashboard)
		api.GET("/trades", s.handleTrades)
		api.GET("/trades/:id", s.handleTradeDetail)

		api.GET("/market/price", s.handleMarketPrice)
		api.GET("/market/candles", s.handleMarketCandles)
		api.GET("/market/indicators", s.handleMarketIndicators)

		api.GET("/strategies", s.handleGetStrategies)
		api.PUT("/strategies/:id", s.handleUpdateStrategy)

		api.GET("/analytics", s.handleAnalytics)

		api.GET("/learn/concepts", s.handleConcepts)
		api.GET("/learn/concepts/:name", s.handleConcept)
		api.GET("/learn/search", s.handleConceptSearch)

		api.GET("/settings", s.handleSettings)
	}
}

// Start begins serving. It blocks until the server exits.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.ServerConfig.Host, s.cfg.ServerConfig.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ServerConfig.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.cfg.ServerConfig.WriteTimeout) * time.Second,
	}

	s.log.Info("API server listening", "addr", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.log.Info("shutting down API server")
	return s.httpServer.Shutdown(ctx)
}
