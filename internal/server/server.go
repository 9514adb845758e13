// Package server exposes the inbound event API: external collaborators
// post trade/position/P&L events here and read challenge status and
// risk state back.
package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fundedlabs/propcore/internal/audit"
	"github.com/fundedlabs/propcore/internal/config"
	"github.com/fundedlabs/propcore/internal/orchestration"
	"github.com/fundedlabs/propcore/pkg/errors"
)

// Server wires the HTTP surface to the coordinator.
type Server struct {
	logger      *zap.Logger
	coordinator *orchestration.Coordinator
	auditStore  *audit.Store
	cfg         *config.Config
}

func New(logger *zap.Logger, coordinator *orchestration.Coordinator, auditStore *audit.Store, cfg *config.Config) *Server {
	return &Server{
		logger:      logger,
		coordinator: coordinator,
		auditStore:  auditStore,
		cfg:         cfg,
	}
}

// Router builds the gin engine with logging, recovery and all routes.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(s.cfg.Server.Mode)
	router := gin.New()
	router.Use(ginzap.Ginzap(s.logger, "2006-01-02T15:04:05Z07:00", true))
	router.Use(ginzap.RecoveryWithZap(s.logger, true))
	router.Use(cors.Default())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/challenges", s.handleCreateChallenge)
		v1.GET("/challenges/:id", s.handleGetChallenge)
		v1.GET("/challenges/:id/events", s.handleGetEvents)
		v1.POST("/challenges/:id/events/trade", s.handleTradeEvent)
		v1.POST("/challenges/:id/events/position", s.handlePositionEvent)
		v1.POST("/challenges/:id/events/pnl", s.handlePnLEvent)
		v1.GET("/challenges/:id/risk", s.handleGetRisk)
		v1.POST("/challenges/:id/risk/resume", s.handleResumeTrading)
		v1.POST("/challenges/:id/risk/permission", s.handleCheckPermission)
	}
	return router
}

// respondError maps domain error kinds onto HTTP statuses. Message
// text is informational; clients branch on the code field.
func (s *Server) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"
	switch {
	case errors.Is(err, errors.ErrValidation):
		status, code = http.StatusBadRequest, "validation_error"
	case errors.Is(err, errors.ErrConcurrentTrade):
		status, code = http.StatusConflict, "concurrent_trade"
	case errors.Is(err, errors.ErrInvalidChallengeState):
		status, code = http.StatusConflict, "invalid_challenge_state"
	case errors.Is(err, errors.ErrBusinessRuleViolation):
		status, code = http.StatusUnprocessableEntity, "business_rule_violation"
	}
	c.JSON(status, gin.H{"code": code, "error": err.Error()})
}

func (s *Server) challengeID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "validation_error", "error": "malformed challenge id"})
		return uuid.Nil, false
	}
	return id, true
}
