package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fundedlabs/propcore/internal/domain"
	"github.com/fundedlabs/propcore/pkg/money"
)

// moneyPayload is a currency-tagged amount on the wire.
type moneyPayload struct {
	Amount   decimal.Decimal `json:"amount" binding:"required"`
	Currency string          `json:"currency" binding:"required"`
}

func (p moneyPayload) toMoney() (money.Money, error) {
	return money.New(p.Amount, p.Currency)
}

type createChallengeRequest struct {
	TraderID      uuid.UUID `json:"trader_id" binding:"required"`
	ChallengeType string    `json:"challenge_type" binding:"required"`
}

func (s *Server) handleCreateChallenge(c *gin.Context) {
	var req createChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "validation_error", "error": err.Error()})
		return
	}
	preset, err := s.cfg.ChallengeType(req.ChallengeType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "validation_error", "error": err.Error()})
		return
	}
	params, err := preset.Parameters(req.ChallengeType)
	if err != nil {
		s.respondError(c, err)
		return
	}
	id, err := s.coordinator.CreateChallenge(req.TraderID, params)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"challenge_id":   id,
		"trader_id":      req.TraderID,
		"challenge_type": req.ChallengeType,
		"status":         "PENDING",
	})
}

type tradeEventRequest struct {
	Symbol      string          `json:"symbol" binding:"required"`
	Side        string          `json:"side" binding:"required,oneof=BUY SELL"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required,dpos"`
	Price       decimal.Decimal `json:"price" binding:"required,dpos"`
	RealizedPnL moneyPayload    `json:"realized_pnl" binding:"required"`
	Commission  moneyPayload    `json:"commission" binding:"required"`
	ExecutedAt  time.Time       `json:"executed_at" binding:"required"`
}

func (s *Server) handleTradeEvent(c *gin.Context) {
	id, ok := s.challengeID(c)
	if !ok {
		return
	}
	var req tradeEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "validation_error", "error": err.Error()})
		return
	}
	pnl, err := req.RealizedPnL.toMoney()
	if err != nil {
		s.respondError(c, err)
		return
	}
	commission, err := req.Commission.toMoney()
	if err != nil {
		s.respondError(c, err)
		return
	}
	trade := domain.TradeEvent{
		Symbol:      req.Symbol,
		Side:        domain.TradeSide(req.Side),
		Quantity:    req.Quantity,
		Price:       req.Price,
		RealizedPnL: pnl,
		Commission:  commission,
		ExecutedAt:  req.ExecutedAt,
	}
	if err := s.coordinator.HandleTrade(c.Request.Context(), id, trade); err != nil {
		s.respondError(c, err)
		return
	}
	view, err := s.coordinator.Challenge(id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"status":         view.Status,
		"current_equity": view.CurrentEquity,
		"total_trades":   view.TotalTrades,
	})
}

type positionEventRequest struct {
	Symbol        string          `json:"symbol" binding:"required"`
	Side          string          `json:"side" binding:"required,oneof=BUY SELL"`
	Quantity      decimal.Decimal `json:"quantity" binding:"required,dpos"`
	EntryPrice    decimal.Decimal `json:"entry_price" binding:"required,dpos"`
	CurrentPrice  decimal.Decimal `json:"current_price" binding:"required,dpos"`
	UnrealizedPnL moneyPayload    `json:"unrealized_pnl" binding:"required"`
	PositionValue moneyPayload    `json:"position_value" binding:"required"`
	EventType     string          `json:"event_type" binding:"required,oneof=OPENED UPDATED CLOSED"`
	OccurredAt    time.Time       `json:"occurred_at" binding:"required"`
}

func (s *Server) handlePositionEvent(c *gin.Context) {
	id, ok := s.challengeID(c)
	if !ok {
		return
	}
	var req positionEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "validation_error", "error": err.Error()})
		return
	}
	unrealized, err := req.UnrealizedPnL.toMoney()
	if err != nil {
		s.respondError(c, err)
		return
	}
	value, err := req.PositionValue.toMoney()
	if err != nil {
		s.respondError(c, err)
		return
	}
	pos := domain.PositionEvent{
		Symbol:        req.Symbol,
		Side:          domain.TradeSide(req.Side),
		Quantity:      req.Quantity,
		EntryPrice:    req.EntryPrice,
		CurrentPrice:  req.CurrentPrice,
		UnrealizedPnL: unrealized,
		PositionValue: value,
		EventType:     domain.PositionEventType(req.EventType),
		OccurredAt:    req.OccurredAt,
	}
	if err := s.coordinator.HandlePosition(c.Request.Context(), id, pos); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

type pnlEventRequest struct {
	CurrentBalance moneyPayload `json:"current_balance" binding:"required"`
	DailyPnL       moneyPayload `json:"daily_pnl" binding:"required"`
	TotalPnL       moneyPayload `json:"total_pnl" binding:"required"`
	UnrealizedPnL  moneyPayload `json:"unrealized_pnl" binding:"required"`
	EventDate      time.Time    `json:"event_date" binding:"required"`
}

func (s *Server) handlePnLEvent(c *gin.Context) {
	id, ok := s.challengeID(c)
	if !ok {
		return
	}
	var req pnlEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "validation_error", "error": err.Error()})
		return
	}
	balance, err := req.CurrentBalance.toMoney()
	if err != nil {
		s.respondError(c, err)
		return
	}
	daily, err := req.DailyPnL.toMoney()
	if err != nil {
		s.respondError(c, err)
		return
	}
	total, err := req.TotalPnL.toMoney()
	if err != nil {
		s.respondError(c, err)
		return
	}
	unrealized, err := req.UnrealizedPnL.toMoney()
	if err != nil {
		s.respondError(c, err)
		return
	}
	pnl := domain.PnLEvent{
		CurrentBalance: balance,
		DailyPnL:       daily,
		TotalPnL:       total,
		UnrealizedPnL:  unrealized,
		EventDate:      req.EventDate,
	}
	if err := s.coordinator.HandlePnL(c.Request.Context(), id, pnl); err != nil {
		s.respondError(c, err)
		return
	}
	view, err := s.coordinator.Risk(id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"overall_score":  view.Score.Overall,
		"risk_level":     view.Score.Level,
		"trading_halted": view.TradingHalted,
	})
}

func (s *Server) handleGetChallenge(c *gin.Context) {
	id, ok := s.challengeID(c)
	if !ok {
		return
	}
	view, err := s.coordinator.Challenge(id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"challenge_id":   view.ID,
		"trader_id":      view.TraderID,
		"challenge_type": view.ChallengeType,
		"status":         view.Status,
		"current_equity": view.CurrentEquity,
		"total_trades":   view.TotalTrades,
	})
}

func (s *Server) handleGetRisk(c *gin.Context) {
	id, ok := s.challengeID(c)
	if !ok {
		return
	}
	view, err := s.coordinator.Risk(id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	components := make(map[string]decimal.Decimal, len(view.Score.Components))
	for metric, v := range view.Score.Components {
		components[string(metric)] = v
	}
	c.JSON(http.StatusOK, gin.H{
		"overall_score":    view.Score.Overall,
		"risk_level":       view.Score.Level,
		"component_scores": components,
		"active_alerts":    len(view.Score.ActiveAlerts),
		"trading_halted":   view.TradingHalted,
		"halt_reason":      view.HaltReason,
		"daily_trades":     view.DailyTrades,
		"total_trades":     view.TotalTrades,
		"current_balance":  view.CurrentBalance,
	})
}

func (s *Server) handleGetEvents(c *gin.Context) {
	id, ok := s.challengeID(c)
	if !ok {
		return
	}
	records, err := s.auditStore.Events(c.Request.Context(), id.String())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": records})
}

type resumeRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (s *Server) handleResumeTrading(c *gin.Context) {
	id, ok := s.challengeID(c)
	if !ok {
		return
	}
	var req resumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "validation_error", "error": err.Error()})
		return
	}
	if err := s.coordinator.ResumeTrading(c.Request.Context(), id, req.Reason); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type permissionRequest struct {
	Symbol   string          `json:"symbol" binding:"required"`
	Side     string          `json:"side" binding:"required,oneof=BUY SELL"`
	Quantity decimal.Decimal `json:"quantity" binding:"required,dpos"`
	Price    decimal.Decimal `json:"price" binding:"required,dpos"`
}

func (s *Server) handleCheckPermission(c *gin.Context) {
	id, ok := s.challengeID(c)
	if !ok {
		return
	}
	var req permissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "validation_error", "error": err.Error()})
		return
	}
	decision, err := s.coordinator.CheckPermission(id, req.Symbol, req.Side, req.Quantity, req.Price, time.Now().UTC())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"allowed":  decision.Allowed,
		"reason":   decision.Reason,
		"severity": decision.Severity.String(),
	})
}
