package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestGormLogger_ParamsFilterStripsBoundValues(t *testing.T) {
	l := NewGormLogger(zap.NewNop(), gormlogger.Warn, 200*time.Millisecond, true)

	sql, params := l.ParamsFilter(context.Background(),
		"UPDATE payments SET gateway_token = $1 WHERE id = $2",
		"tok_secret_value", int64(7))

	assert.Equal(t, "UPDATE payments SET gateway_token = $1 WHERE id = $2", sql)
	assert.Nil(t, params)
}

func TestGormLogger_TraceLogsPlaceholderSQLOnError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewGormLogger(zap.New(core), gormlogger.Warn, 200*time.Millisecond, true)

	// gorm consults ParamsFilter before rendering, so fc sees only the
	// placeholder form of the statement.
	sql, _ := l.ParamsFilter(context.Background(),
		"INSERT INTO payments (gateway_token) VALUES ($1)", "tok_secret_value")
	l.Trace(context.Background(), time.Now(), func() (string, int64) {
		return sql, 0
	}, errors.New("duplicate key value violates unique constraint"))

	entries := logs.All()
	assert.Len(t, entries, 1)
	for _, entry := range entries {
		for _, value := range entry.ContextMap() {
			if s, ok := value.(string); ok {
				assert.NotContains(t, s, "tok_secret_value")
			}
		}
	}
}
