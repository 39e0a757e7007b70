package database

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const queryStartKey = "query_monitor:start"

// QueryRecorder receives one observation per executed statement
type QueryRecorder interface {
	RecordDBQuery(operation string, duration time.Duration, failed bool)
}

// QueryStats holds aggregated query statistics
type QueryStats struct {
	TotalQueries     int64         `json:"total_queries"`
	SlowQueries      int64         `json:"slow_queries"`
	FailedQueries    int64         `json:"failed_queries"`
	AverageQueryTime time.Duration `json:"average_query_time"`
	TotalQueryTime   time.Duration `json:"total_query_time"`
	LastReset        time.Time     `json:"last_reset"`
}

// SlowQuery is a statement that ran longer than the threshold
type SlowQuery struct {
	SQL       string        `json:"sql"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
	Error     string        `json:"error,omitempty"`
}

// QueryMonitor is a GORM plugin that times every statement, keeps the most
// recent slow queries and forwards observations to a QueryRecorder
type QueryMonitor struct {
	logger      *zap.Logger
	recorder    QueryRecorder
	threshold   time.Duration
	maxSlowLogs int

	mu          sync.RWMutex
	stats       QueryStats
	slowQueries []SlowQuery
}

// NewQueryMonitor creates a query monitor. recorder may be nil.
func NewQueryMonitor(logger *zap.Logger, threshold time.Duration, recorder QueryRecorder) *QueryMonitor {
	if threshold <= 0 {
		threshold = 200 * time.Millisecond
	}
	return &QueryMonitor{
		logger:      logger,
		recorder:    recorder,
		threshold:   threshold,
		maxSlowLogs: 100,
		stats:       QueryStats{LastReset: time.Now()},
	}
}

// Name implements gorm.Plugin
func (qm *QueryMonitor) Name() string {
	return "nutrilab:query_monitor"
}

// Initialize implements gorm.Plugin by registering timing callbacks around
// every statement kind
func (qm *QueryMonitor) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	hooks := []struct {
		operation string
		before    func(name string, fn func(*gorm.DB)) error
		after     func(name string, fn func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}

	for _, h := range hooks {
		operation := h.operation
		if err := h.before("query_monitor:before_"+operation, qm.before); err != nil {
			return err
		}
		if err := h.after("query_monitor:after_"+operation, func(db *gorm.DB) {
			qm.after(db, operation)
		}); err != nil {
			return err
		}
	}
	return nil
}

func (qm *QueryMonitor) before(db *gorm.DB) {
	db.InstanceSet(queryStartKey, time.Now())
}

func (qm *QueryMonitor) after(db *gorm.DB, operation string) {
	v, ok := db.InstanceGet(queryStartKey)
	if !ok {
		return
	}
	start, ok := v.(time.Time)
	if !ok {
		return
	}

	var sql string
	if db.Statement != nil {
		sql = db.Statement.SQL.String()
	}
	// Not-found is a normal outcome for lookups
	err := db.Error
	if err == gorm.ErrRecordNotFound {
		err = nil
	}
	qm.record(operation, sql, time.Since(start), err)
}

func (qm *QueryMonitor) record(operation, sql string, duration time.Duration, err error) {
	if qm.recorder != nil {
		qm.recorder.RecordDBQuery(operation, duration, err != nil)
	}

	qm.mu.Lock()
	defer qm.mu.Unlock()

	qm.stats.TotalQueries++
	qm.stats.TotalQueryTime += duration
	qm.stats.AverageQueryTime = qm.stats.TotalQueryTime / time.Duration(qm.stats.TotalQueries)

	if err != nil {
		qm.stats.FailedQueries++
	}

	if duration <= qm.threshold {
		return
	}

	qm.stats.SlowQueries++
	slow := SlowQuery{
		SQL:       sanitizeSQL(sql),
		Duration:  duration,
		Timestamp: time.Now(),
	}
	if err != nil {
		slow.Error = err.Error()
	}

	if len(qm.slowQueries) >= qm.maxSlowLogs {
		qm.slowQueries = qm.slowQueries[1:]
	}
	qm.slowQueries = append(qm.slowQueries, slow)

	qm.logger.Warn("Slow query detected",
		zap.String("operation", operation),
		zap.Duration("duration", duration),
		zap.String("sql", slow.SQL),
		zap.Error(err),
	)
}

// sanitizeSQL strips quoted literals and bounds the length for logging
func sanitizeSQL(sql string) string {
	sanitized := strings.ReplaceAll(sql, "'", "?")
	if len(sanitized) > 500 {
		sanitized = sanitized[:500] + "..."
	}
	return sanitized
}

// Stats returns current query statistics
func (qm *QueryMonitor) Stats() QueryStats {
	qm.mu.RLock()
	defer qm.mu.RUnlock()

	return qm.stats
}

// SlowQueries returns up to limit of the most recent slow queries, oldest
// first. A limit of 0 returns all of them.
func (qm *QueryMonitor) SlowQueries(limit int) []SlowQuery {
	qm.mu.RLock()
	defer qm.mu.RUnlock()

	if limit <= 0 || limit > len(qm.slowQueries) {
		limit = len(qm.slowQueries)
	}

	result := make([]SlowQuery, limit)
	copy(result, qm.slowQueries[len(qm.slowQueries)-limit:])
	return result
}

// Reset clears all statistics
func (qm *QueryMonitor) Reset() {
	qm.mu.Lock()
	defer qm.mu.Unlock()

	qm.stats = QueryStats{LastReset: time.Now()}
	qm.slowQueries = nil
}

// zapWriter routes GORM's own logger through zap
type zapWriter struct {
	logger *zap.Logger
}

// Printf implements gorm logger.Writer
func (w zapWriter) Printf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)

	switch {
	case strings.Contains(msg, "SLOW SQL"):
		w.logger.Warn("GORM slow query", zap.String("message", msg))
	case strings.Contains(msg, "error"), strings.Contains(msg, "ERROR"):
		w.logger.Error("GORM error", zap.String("message", msg))
	default:
		w.logger.Debug("GORM log", zap.String("message", msg))
	}
}
