package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"crypto-mentor-bot/config"
	"crypto-mentor-bot/internal/explainer"
	"crypto-mentor-bot/internal/trader"
)

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    "crypto-mentor-bot",
		"status":  "ok",
		"running": s.bot.IsRunning(),
		"mode":    "paper",
		"pair":    s.cfg.TradingConfig.Pair,
	})
}

// handleDashboard returns everything the main screen needs in one call.
func (s *Server) handleDashboard(c *gin.Context) {
	portfolio := s.trader.Portfolio()
	open := s.trader.OpenTrades()
	closed := s.trader.ClosedTrades()

	// Most recent closes first, capped at 10.
	recent := make([]*trader.Trade, 0, 10)
	for i := len(closed) - 1; i >= 0 && len(recent) < 10; i-- {
		recent = append(recent, closed[i])
	}

	var price float64
	if snap, ok := s.engine.CachedSnapshot(c.Request.Context(), s.cfg.TradingConfig.Pair, s.cfg.TradingConfig.Timeframe); ok {
		price = snap.Price
	}

	c.JSON(http.StatusOK, gin.H{
		"portfolio": gin.H{
			"balance":         portfolio.Balance,
			"total_pnl":       portfolio.TotalPnL,
			"total_trades":    portfolio.TotalTrades,
			"winning_trades":  portfolio.WinningTrades,
			"losing_trades":   portfolio.LosingTrades,
			"win_rate":        portfolio.WinRate(),
			"best_trade_pnl":  portfolio.BestTradePnL,
			"worst_trade_pnl": portfolio.WorstTradePnL,
		},
		"open_trades":   open,
		"recent_trades": recent,
		"bot":           s.bot.Status(),
		"current_price": price,
	})
}

func (s *Server) handleTrades(c *gin.Context) {
	status := strings.ToUpper(c.Query("status"))
	strategyFilter := c.Query("strategy")
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)

	if s.repo != nil {
		trades, err := s.repo.GetTrades(c.Request.Context(), status, strategyFilter, limit, offset)
		if err != nil {
			s.log.Error("failed to query trades", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query trades"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"trades": trades, "count": len(trades)})
		return
	}

	// No database: serve from memory, newest first.
	all := s.trader.OpenTrades()
	closed := s.trader.ClosedTrades()
	for i := len(closed) - 1; i >= 0; i-- {
		all = append(all, closed[i])
	}

	filtered := make([]*trader.Trade, 0, len(all))
	for _, t := range all {
		if status != "" && t.Status != status {
			continue
		}
		if strategyFilter != "" && !strings.Contains(t.Strategy, strategyFilter) {
			continue
		}
		filtered = append(filtered, t)
	}

	if offset > len(filtered) {
		offset = len(filtered)
	}
	end := offset + limit
	if end > len(filtered) {
		end = len(filtered)
	}
	page := filtered[offset:end]
	c.JSON(http.StatusOK, gin.H{"trades": page, "count": len(page)})
}

func (s *Server) handleTradeDetail(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trade id"})
		return
	}

	if s.repo != nil {
		detail, err := s.repo.GetTradeDetail(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "trade not found"})
			return
		}
		c.JSON(http.StatusOK, detail)
		return
	}

	for _, t := range s.trader.OpenTrades() {
		if t.ID == id {
			c.JSON(http.StatusOK, gin.H{"trade": t})
			return
		}
	}
	for _, t := range s.trader.ClosedTrades() {
		if t.ID == id {
			c.JSON(http.StatusOK, gin.H{"trade": t})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "trade not found"})
}

func (s *Server) handleMarketPrice(c *gin.Context) {
	pair := c.DefaultQuery("pair", s.cfg.TradingConfig.Pair)
	price, err := s.engine.GetPrice(c.Request.Context(), pair)
	if err != nil {
		s.log.Error("price fetch failed", "pair", pair, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch price"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pair": pair, "price": price})
}

// handleMarketCandles returns candles plus the indicator overlays the chart
// draws on top of them.
func (s *Server) handleMarketCandles(c *gin.Context) {
	pair := c.DefaultQuery("pair", s.cfg.TradingConfig.Pair)
	timeframe := c.DefaultQuery("timeframe", s.cfg.TradingConfig.Timeframe)
	limit := intQuery(c, "limit", s.cfg.TradingConfig.CandleLimit)

	candles, snap, err := s.engine.GetSnapshot(c.Request.Context(), pair, timeframe, limit)
	if err != nil {
		s.log.Error("candle fetch failed", "pair", pair, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch candles"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"pair":      pair,
		"timeframe": timeframe,
		"candles":   candles,
		"overlays": gin.H{
			"ema_9":     snap.EMA9,
			"ema_21":    snap.EMA21,
			"ema_50":    snap.EMA50,
			"ema_200":   snap.EMA200,
			"bb_upper":  snap.BBUpper,
			"bb_middle": snap.BBMiddle,
			"bb_lower":  snap.BBLower,
		},
		"levels": gin.H{
			"support":    snap.Support,
			"resistance": snap.Resistance,
		},
	})
}

func (s *Server) handleMarketIndicators(c *gin.Context) {
	pair := c.DefaultQuery("pair", s.cfg.TradingConfig.Pair)
	timeframe := c.DefaultQuery("timeframe", s.cfg.TradingConfig.Timeframe)

	_, snap, err := s.engine.GetSnapshot(c.Request.Context(), pair, timeframe, s.cfg.TradingConfig.CandleLimit)
	if err != nil {
		s.log.Error("indicator fetch failed", "pair", pair, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to compute indicators"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pair": pair, "timeframe": timeframe, "indicators": snap})
}

func (s *Server) handleGetStrategies(c *gin.Context) {
	s.mu.Lock()
	configs := make([]config.StrategyConfig, len(s.cfg.StrategiesConfig))
	copy(configs, s.cfg.StrategiesConfig)
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"strategies": configs,
		"active":     s.orchestrator.Strategies(),
	})
}

type updateStrategyRequest struct {
	Enabled    *bool              `json:"enabled"`
	Parameters map[string]float64 `json:"parameters"`
}

// handleUpdateStrategy updates one strategy's config and reloads the
// orchestrator so the change takes effect on the next scan.
func (s *Server) handleUpdateStrategy(c *gin.Context) {
	name := c.Param("id")

	var req updateStrategyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	s.mu.Lock()
	idx := -1
	for i := range s.cfg.StrategiesConfig {
		if s.cfg.StrategiesConfig[i].Name == name {
			idx = i
			break
		}
	}
	if idx == -1 {
		s.mu.Unlock()
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown strategy"})
		return
	}

	if req.Enabled != nil {
		s.cfg.StrategiesConfig[idx].Enabled = *req.Enabled
	}
	if req.Parameters != nil {
		if s.cfg.StrategiesConfig[idx].Parameters == nil {
			s.cfg.StrategiesConfig[idx].Parameters = make(map[string]float64)
		}
		for k, v := range req.Parameters {
			s.cfg.StrategiesConfig[idx].Parameters[k] = v
		}
	}
	updated := s.cfg.StrategiesConfig[idx]
	configs := make([]config.StrategyConfig, len(s.cfg.StrategiesConfig))
	copy(configs, s.cfg.StrategiesConfig)
	s.mu.Unlock()

	s.orchestrator.Reload(configs)
	s.log.Info("strategy config updated", "strategy", name, "enabled", updated.Enabled)

	if s.repo != nil {
		if err := s.repo.SaveStrategyConfigs(c.Request.Context(), configs); err != nil {
			s.log.Warn("failed to persist strategy configs", "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"strategy": updated})
}

// handleAnalytics aggregates closed trades into per-strategy stats and a
// cumulative PnL curve.
func (s *Server) handleAnalytics(c *gin.Context) {
	closed := s.trader.ClosedTrades()

	type strategyStats struct {
		Trades   int     `json:"trades"`
		Wins     int     `json:"wins"`
		Losses   int     `json:"losses"`
		TotalPnL float64 `json:"total_pnl"`
		WinRate  float64 `json:"win_rate"`
	}
	byStrategy := make(map[string]*strategyStats)

	type pnlPoint struct {
		TradeID       int64   `json:"trade_id"`
		ClosedAt      string  `json:"closed_at"`
		PnL           float64 `json:"pnl"`
		CumulativePnL float64 `json:"cumulative_pnl"`
	}
	history := make([]pnlPoint, 0, len(closed))

	var cumulative float64
	for _, t := range closed {
		// A confluence trade counts toward every strategy that agreed.
		for _, name := range strings.Split(t.Strategy, " + ") {
			st := byStrategy[name]
			if st == nil {
				st = &strategyStats{}
				byStrategy[name] = st
			}
			st.Trades++
			st.TotalPnL += t.PnL
			if t.PnL > 0 {
				st.Wins++
			} else {
				st.Losses++
			}
		}

		cumulative += t.PnL
		point := pnlPoint{TradeID: t.ID, PnL: t.PnL, CumulativePnL: cumulative}
		if t.ClosedAt != nil {
			point.ClosedAt = t.ClosedAt.UTC().Format("2006-01-02T15:04:05Z")
		}
		history = append(history, point)
	}

	for _, st := range byStrategy {
		if st.Trades > 0 {
			st.WinRate = float64(st.Wins) / float64(st.Trades) * 100
		}
	}

	portfolio := s.trader.Portfolio()
	c.JSON(http.StatusOK, gin.H{
		"by_strategy": byStrategy,
		"pnl_history": history,
		"summary": gin.H{
			"total_trades": portfolio.TotalTrades,
			"total_pnl":    portfolio.TotalPnL,
			"win_rate":     portfolio.WinRate(),
			"balance":      portfolio.Balance,
		},
	})
}

func (s *Server) handleConcepts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"concepts": explainer.AllConcepts()})
}

func (s *Server) handleConcept(c *gin.Context) {
	name := c.Param("name")
	concept, ok := explainer.GetConcept(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown concept"})
		return
	}
	c.JSON(http.StatusOK, concept)
}

func (s *Server) handleConceptSearch(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter q"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": explainer.SearchConcepts(q)})
}

// handleSettings returns the running configuration without credentials.
func (s *Server) handleSettings(c *gin.Context) {
	s.mu.Lock()
	strategies := make([]config.StrategyConfig, len(s.cfg.StrategiesConfig))
	copy(strategies, s.cfg.StrategiesConfig)
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"trading": s.cfg.TradingConfig,
		"exchange": gin.H{
			"mock_mode": s.cfg.ExchangeConfig.MockMode,
		},
		"strategies": strategies,
		"notifications": gin.H{
			"enabled":  s.cfg.NotificationConfig.Enabled,
			"telegram": s.cfg.NotificationConfig.Telegram.Enabled,
			"discord":  s.cfg.NotificationConfig.Discord.Enabled,
		},
		"database_enabled": s.cfg.DatabaseConfig.Enabled,
		"redis_enabled":    s.cfg.RedisConfig.Enabled,
	})
}

func intQuery(c *gin.Context, key string, fallback int) int {
	v := c.Query(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
