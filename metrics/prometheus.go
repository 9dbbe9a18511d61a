package metrics

import (
	"math/big"
	"net/http"
	"sync"
	"time"

	"cosmossdk.io/math"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fee vault metrics collector

var (
	// Singleton collector
	collector     *Collector
	collectorOnce sync.Once
)

// Collector holds all fee vault metrics
type Collector struct {
	// Operation metrics
	OperationsTotal  *prometheus.CounterVec
	OperationLatency *prometheus.HistogramVec

	// Flow metrics
	DepositedUnderlying *prometheus.CounterVec
	WithdrawnUnderlying *prometheus.CounterVec
	SharesMinted        *prometheus.CounterVec
	SharesBurned        *prometheus.CounterVec

	// Fee metrics
	FeeSharesAccrued *prometheus.CounterVec
	FeesClaimed      *prometheus.CounterVec
	RateRegressions  *prometheus.CounterVec
	DustCleared      *prometheus.CounterVec
	TakeRate         prometheus.Gauge

	// Reserve state
	BRate        *prometheus.GaugeVec
	TotalShares  *prometheus.GaugeVec
	TotalBTokens *prometheus.GaugeVec

	// Pool metrics
	PoolCallsFailed *prometheus.CounterVec
}

// GetCollector returns the singleton metrics collector
func GetCollector() *Collector {
	collectorOnce.Do(func() {
		collector = newCollector()
	})
	return collector
}

func counterVec(subsystem, name, help string, labels ...string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "feevault",
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

func gaugeVec(subsystem, name, help string, labels ...string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "feevault",
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

// newCollector creates a new metrics collector
func newCollector() *Collector {
	c := &Collector{}

	c.OperationsTotal = counterVec("ops", "total", "Vault operations by outcome", "operation", "status")
	c.OperationLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "feevault",
			Subsystem: "ops",
			Name:      "latency_ms",
			Help:      "Vault operation latency in milliseconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
		},
		[]string{"operation"},
	)

	c.DepositedUnderlying = counterVec("flow", "deposited_underlying", "Underlying tokens deposited", "reserve_id")
	c.WithdrawnUnderlying = counterVec("flow", "withdrawn_underlying", "Underlying tokens withdrawn", "reserve_id")
	c.SharesMinted = counterVec("flow", "shares_minted", "Depositor shares minted", "reserve_id")
	c.SharesBurned = counterVec("flow", "shares_burned", "Depositor shares burned, dust included", "reserve_id")

	c.FeeSharesAccrued = counterVec("fees", "shares_accrued", "Admin fee shares minted by accrual", "reserve_id")
	c.FeesClaimed = counterVec("fees", "claimed_underlying", "Underlying tokens paid out by fee claims", "reserve_id")
	c.RateRegressions = counterVec("fees", "rate_regressions", "Observed b_rate values below the last observed rate", "reserve_id")
	c.DustCleared = counterVec("fees", "dust_cleared_shares", "Dust shares cleared on withdrawal", "reserve_id", "destination")
	c.TakeRate = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "feevault",
			Subsystem: "fees",
			Name:      "take_rate",
			Help:      "Current take rate (0-1)",
		},
	)

	c.BRate = gaugeVec("reserve", "b_rate", "Last observed b_rate", "reserve_id")
	c.TotalShares = gaugeVec("reserve", "total_shares", "Outstanding vault shares", "reserve_id")
	c.TotalBTokens = gaugeVec("reserve", "total_b_tokens", "B-tokens held for the reserve", "reserve_id")

	c.PoolCallsFailed = counterVec("pool", "calls_failed", "Failed calls into the lending pool", "call")

	c.registerAll()

	return c
}

// registerAll registers all metrics with Prometheus
func (c *Collector) registerAll() {
	prometheus.MustRegister(c.OperationsTotal)
	prometheus.MustRegister(c.OperationLatency)

	prometheus.MustRegister(c.DepositedUnderlying)
	prometheus.MustRegister(c.WithdrawnUnderlying)
	prometheus.MustRegister(c.SharesMinted)
	prometheus.MustRegister(c.SharesBurned)

	prometheus.MustRegister(c.FeeSharesAccrued)
	prometheus.MustRegister(c.FeesClaimed)
	prometheus.MustRegister(c.RateRegressions)
	prometheus.MustRegister(c.DustCleared)
	prometheus.MustRegister(c.TakeRate)

	prometheus.MustRegister(c.BRate)
	prometheus.MustRegister(c.TotalShares)
	prometheus.MustRegister(c.TotalBTokens)

	prometheus.MustRegister(c.PoolCallsFailed)
}

// ============ Recording Helpers ============

// RecordOperation records the outcome and latency of a vault operation
func (c *Collector) RecordOperation(operation string, err error, latencyMs float64) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.OperationsTotal.WithLabelValues(operation, status).Inc()
	c.OperationLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordDeposit records a successful deposit
func (c *Collector) RecordDeposit(reserveID string, amount, shares math.Int) {
	c.DepositedUnderlying.WithLabelValues(reserveID).Add(IntToFloat(amount))
	c.SharesMinted.WithLabelValues(reserveID).Add(IntToFloat(shares))
}

// RecordWithdraw records a successful withdrawal
func (c *Collector) RecordWithdraw(reserveID string, amount, shares math.Int) {
	c.WithdrawnUnderlying.WithLabelValues(reserveID).Add(IntToFloat(amount))
	c.SharesBurned.WithLabelValues(reserveID).Add(IntToFloat(shares))
}

// RecordAccrual records fee shares minted to the admin
func (c *Collector) RecordAccrual(reserveID string, feeShares math.Int, regressed bool) {
	if regressed {
		c.RateRegressions.WithLabelValues(reserveID).Inc()
	}
	if feeShares.IsPositive() {
		c.FeeSharesAccrued.WithLabelValues(reserveID).Add(IntToFloat(feeShares))
	}
}

// RecordDust records dust shares cleared from a position
func (c *Collector) RecordDust(reserveID string, shares math.Int, toAdmin bool) {
	destination := "burned"
	if toAdmin {
		destination = "admin"
	}
	c.DustCleared.WithLabelValues(reserveID, destination).Add(IntToFloat(shares))
}

// RecordFeeClaim records underlying paid out by a fee claim
func (c *Collector) RecordFeeClaim(reserveID string, amount math.Int) {
	c.FeesClaimed.WithLabelValues(reserveID).Add(IntToFloat(amount))
}

// RecordTakeRate records the configured take rate
func (c *Collector) RecordTakeRate(takeRate, scalar math.Int) {
	c.TakeRate.Set(RatioToFloat(takeRate, scalar))
}

// RecordReserve records a reserve's accounting state
func (c *Collector) RecordReserve(reserveID string, bRate, scalar, totalShares, totalBTokens math.Int) {
	c.BRate.WithLabelValues(reserveID).Set(RatioToFloat(bRate, scalar))
	c.TotalShares.WithLabelValues(reserveID).Set(IntToFloat(totalShares))
	c.TotalBTokens.WithLabelValues(reserveID).Set(IntToFloat(totalBTokens))
}

// RecordPoolFailure records a failed pool call
func (c *Collector) RecordPoolFailure(call string) {
	c.PoolCallsFailed.WithLabelValues(call).Inc()
}

// IntToFloat converts an integer amount for reporting
func IntToFloat(x math.Int) float64 {
	if x.IsNil() {
		return 0
	}
	f, _ := new(big.Float).SetInt(x.BigInt()).Float64()
	return f
}

// RatioToFloat converts a fixed-point value to a float given its scalar
func RatioToFloat(x, scalar math.Int) float64 {
	if x.IsNil() || scalar.IsNil() || scalar.IsZero() {
		return 0
	}
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(x.BigInt()), new(big.Float).SetInt(scalar.BigInt())).Float64()
	return f
}

// ============ HTTP Handler ============

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for measuring latency
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ElapsedMs returns the elapsed time in milliseconds
func (t *Timer) ElapsedMs() float64 {
	return float64(time.Since(t.start).Microseconds()) / 1000.0
}
