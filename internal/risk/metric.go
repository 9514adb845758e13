package risk

// MetricType identifies the quantity a threshold or alert refers to.
type MetricType string

const (
	MetricDailyDrawdown     MetricType = "DAILY_DRAWDOWN"
	MetricTotalDrawdown     MetricType = "TOTAL_DRAWDOWN"
	MetricPositionSize      MetricType = "POSITION_SIZE"
	MetricTotalExposure     MetricType = "TOTAL_EXPOSURE"
	MetricTradeVelocity     MetricType = "TRADE_VELOCITY"
	MetricPnLVolatility     MetricType = "PNL_VOLATILITY"
	MetricSymbolRestriction MetricType = "SYMBOL_RESTRICTION"
	MetricTradingHours      MetricType = "TRADING_HOURS"
	MetricActiveAlerts      MetricType = "ACTIVE_ALERTS"
	MetricManualHalt        MetricType = "MANUAL_HALT"
)
