// Package orchestration serializes event delivery into the challenge
// and risk aggregates and drains their outboxes to downstream
// publishers. Each account is a single-writer aggregate pair guarded
// by its own mutex; different accounts process fully in parallel.
package orchestration

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fundedlabs/propcore/internal/challenge"
	"github.com/fundedlabs/propcore/internal/domain"
	"github.com/fundedlabs/propcore/internal/risk"
	"github.com/fundedlabs/propcore/pkg/errors"
	"github.com/fundedlabs/propcore/pkg/metrics"
)

// Publisher receives drained domain events. Implementations own the
// at-least-once delivery guarantee; the core only guarantees each
// event is produced once.
type Publisher interface {
	Publish(ctx context.Context, events []domain.Event) error
}

type account struct {
	mu        sync.Mutex
	challenge *challenge.Challenge
	engine    *risk.Engine
}

// Coordinator routes inbound events to registered accounts.
type Coordinator struct {
	mu        sync.RWMutex
	accounts  map[uuid.UUID]*account
	publisher Publisher
	logger    *zap.Logger
}

func New(publisher Publisher, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		accounts:  map[uuid.UUID]*account{},
		publisher: publisher,
		logger:    logger,
	}
}

// CreateChallenge provisions a fresh PENDING challenge with the stock
// risk profile and limits for its type, and registers the pair.
func (c *Coordinator) CreateChallenge(traderID uuid.UUID, params challenge.Parameters) (uuid.UUID, error) {
	challengeID := uuid.New()
	ch := challenge.New(challengeID, traderID, params)
	profile := risk.PresetProfile(risk.Type(params.ChallengeType), traderID, challengeID)
	eng, err := risk.NewEngine(traderID, challengeID, params.InitialBalance, profile, risk.PresetLimits(risk.Type(params.ChallengeType)))
	if err != nil {
		return uuid.Nil, err
	}
	if err := c.Register(ch, eng); err != nil {
		return uuid.Nil, err
	}
	return challengeID, nil
}

// Register adds a challenge and its risk engine. Both must belong to
// the same account.
func (c *Coordinator) Register(ch *challenge.Challenge, eng *risk.Engine) error {
	if ch.ID() != eng.ChallengeID() || ch.TraderID() != eng.TraderID() {
		return errors.BusinessRuleViolationf("challenge %s/%s and risk engine %s/%s are different accounts",
			ch.TraderID(), ch.ID(), eng.TraderID(), eng.ChallengeID())
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.accounts[ch.ID()]; exists {
		return errors.BusinessRuleViolationf("challenge %s is already registered", ch.ID())
	}
	c.accounts[ch.ID()] = &account{challenge: ch, engine: eng}
	c.logger.Info("account registered",
		zap.String("challenge_id", ch.ID().String()),
		zap.String("trader_id", ch.TraderID().String()),
		zap.String("challenge_type", ch.Params().ChallengeType))
	return nil
}

func (c *Coordinator) lookup(challengeID uuid.UUID) (*account, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	acct, ok := c.accounts[challengeID]
	if !ok {
		return nil, errors.BusinessRuleViolationf("challenge %s is not registered", challengeID)
	}
	return acct, nil
}

// HandleTrade feeds one fill to both aggregates. A challenge rejection
// (terminal state, ordering violation) rejects the whole event; the
// risk engine never sees a fill the challenge refused.
func (c *Coordinator) HandleTrade(ctx context.Context, challengeID uuid.UUID, trade domain.TradeEvent) error {
	acct, err := c.lookup(challengeID)
	if err != nil {
		return err
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()

	if err := acct.challenge.OnTradeExecuted(trade); err != nil {
		metrics.EventsProcessed.WithLabelValues("trade", "rejected").Inc()
		c.drain(ctx, acct)
		return err
	}
	if err := acct.engine.ProcessTradeEvent(trade); err != nil {
		metrics.EventsProcessed.WithLabelValues("trade", "rejected").Inc()
		c.drain(ctx, acct)
		return err
	}
	metrics.EventsProcessed.WithLabelValues("trade", "ok").Inc()
	c.drain(ctx, acct)
	return nil
}

// HandlePosition feeds a position snapshot to the risk engine.
func (c *Coordinator) HandlePosition(ctx context.Context, challengeID uuid.UUID, pos domain.PositionEvent) error {
	acct, err := c.lookup(challengeID)
	if err != nil {
		return err
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()

	if err := acct.engine.ProcessPositionEvent(pos); err != nil {
		metrics.EventsProcessed.WithLabelValues("position", "rejected").Inc()
		c.drain(ctx, acct)
		return err
	}
	metrics.EventsProcessed.WithLabelValues("position", "ok").Inc()
	c.drain(ctx, acct)
	return nil
}

// HandlePnL feeds an account P&L snapshot to the risk engine.
func (c *Coordinator) HandlePnL(ctx context.Context, challengeID uuid.UUID, pnl domain.PnLEvent) error {
	acct, err := c.lookup(challengeID)
	if err != nil {
		return err
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()

	if err := acct.engine.ProcessPnLEvent(pnl); err != nil {
		metrics.EventsProcessed.WithLabelValues("pnl", "rejected").Inc()
		c.drain(ctx, acct)
		return err
	}
	metrics.EventsProcessed.WithLabelValues("pnl", "ok").Inc()
	c.drain(ctx, acct)
	return nil
}

// ResumeTrading lifts a risk engine halt on operator request.
func (c *Coordinator) ResumeTrading(ctx context.Context, challengeID uuid.UUID, reason string) error {
	acct, err := c.lookup(challengeID)
	if err != nil {
		return err
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()

	acct.engine.ResumeTrading(reason)
	c.drain(ctx, acct)
	return nil
}

// CheckPermission runs the pure pre-trade gate.
func (c *Coordinator) CheckPermission(challengeID uuid.UUID, symbol, side string, quantity, price decimal.Decimal, at time.Time) (risk.Decision, error) {
	acct, err := c.lookup(challengeID)
	if err != nil {
		return risk.Decision{}, err
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()
	return acct.engine.EvaluateTradingPermission(symbol, side, quantity, price, at), nil
}

// ChallengeView is a read snapshot of one registered challenge.
type ChallengeView struct {
	ID            uuid.UUID
	TraderID      uuid.UUID
	ChallengeType string
	Status        challenge.Status
	CurrentEquity string
	TotalTrades   int
}

// RiskView is a read snapshot of one account's risk state.
type RiskView struct {
	Score          risk.Score
	TradingHalted  bool
	HaltReason     string
	DailyTrades    int
	TotalTrades    int
	CurrentBalance string
}

// Challenge returns a snapshot of the challenge aggregate.
func (c *Coordinator) Challenge(challengeID uuid.UUID) (ChallengeView, error) {
	acct, err := c.lookup(challengeID)
	if err != nil {
		return ChallengeView{}, err
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()
	ch := acct.challenge
	return ChallengeView{
		ID:            ch.ID(),
		TraderID:      ch.TraderID(),
		ChallengeType: ch.Params().ChallengeType,
		Status:        ch.Status(),
		CurrentEquity: ch.CurrentEquity().String(),
		TotalTrades:   ch.TotalTrades(),
	}, nil
}

// Risk returns a snapshot of the risk engine state.
func (c *Coordinator) Risk(challengeID uuid.UUID) (RiskView, error) {
	acct, err := c.lookup(challengeID)
	if err != nil {
		return RiskView{}, err
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()
	eng := acct.engine
	return RiskView{
		Score:          eng.Score(),
		TradingHalted:  eng.IsTradingHalted(),
		HaltReason:     eng.HaltReason(),
		DailyTrades:    eng.DailyTrades(),
		TotalTrades:    eng.TotalTrades(),
		CurrentBalance: eng.CurrentBalance().String(),
	}, nil
}

// drain empties both outboxes and hands the batch to the publisher.
// Publish failures are logged, not surfaced: the state mutation
// already happened and delivery retries are the publisher's job.
func (c *Coordinator) drain(ctx context.Context, acct *account) {
	events := acct.challenge.Drain()
	events = append(events, acct.engine.Drain()...)
	if len(events) == 0 {
		return
	}
	observe(events, acct.challenge.ID())
	if err := c.publisher.Publish(ctx, events); err != nil {
		c.logger.Error("failed to publish domain events",
			zap.String("challenge_id", acct.challenge.ID().String()),
			zap.Int("events", len(events)),
			zap.Error(err))
	}
}

// observe updates prometheus counters from the drained batch.
func observe(events []domain.Event, challengeID uuid.UUID) {
	for _, e := range events {
		switch evt := e.(type) {
		case domain.ChallengeFailed:
			metrics.ChallengesTerminal.WithLabelValues(string(challenge.StatusFailed)).Inc()
		case domain.ChallengeFunded:
			metrics.ChallengesTerminal.WithLabelValues(string(challenge.StatusFunded)).Inc()
		case domain.RiskAlertTriggered:
			metrics.AlertsTriggered.WithLabelValues(evt.Severity).Inc()
		case domain.TradingHalted:
			metrics.TradingHalts.Inc()
		case domain.RiskScoreCalculated:
			metrics.RiskScore.WithLabelValues(challengeID.String()).Set(evt.OverallScore.InexactFloat64())
		}
	}
}
