package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Lelcaren/mwangaza-rentals/internal/logger"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// SlowQueryThreshold marks queries that are logged at warn level.
const SlowQueryThreshold = 200 * time.Millisecond

// GormLogger forwards gorm's SQL logging to the application logger.
type GormLogger struct {
	log   *logger.Logger
	level gormlogger.LogLevel
}

// NewGormLogger creates a gorm logger writing through log.
func NewGormLogger(log *logger.Logger) *GormLogger {
	return &GormLogger{log: log.WithComponent("gorm"), level: gormlogger.Warn}
}

// LogMode implements gormlogger.Interface.
func (g *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *g
	clone.level = level
	return &clone
}

// Info implements gormlogger.Interface.
func (g *GormLogger) Info(_ context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Info {
		g.log.Info(fmt.Sprintf(msg, args...), nil)
	}
}

// Warn implements gormlogger.Interface.
func (g *GormLogger) Warn(_ context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Warn {
		g.log.Warn(fmt.Sprintf(msg, args...), nil)
	}
}

// Error implements gormlogger.Interface.
func (g *GormLogger) Error(_ context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Error {
		g.log.Error(fmt.Sprintf(msg, args...), nil, nil)
	}
}

// Trace implements gormlogger.Interface. Record-not-found is not treated as a failure.
func (g *GormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := map[string]interface{}{
		"elapsed_ms": elapsed.Milliseconds(),
		"rows":       rows,
		"sql":        sql,
	}

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && g.level >= gormlogger.Error:
		g.log.Error("query failed", err, fields)
	case elapsed > SlowQueryThreshold && g.level >= gormlogger.Warn:
		g.log.Warn("slow query", fields)
	case g.level >= gormlogger.Info:
		g.log.Debug("query", fields)
	}
}
