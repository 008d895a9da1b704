package logger

import (
	"context"
	c "eventhub-backend/context"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/sirupsen/logrus"
)

var logger *logrus.Logger

const CorrelationID = "correlation_id"

func init() {
	logger = logrus.New()
	logger.SetOutput(os.Stdout)
}

func Fatalf(ctx context.Context, format string, args ...interface{}) {
	logger.WithField(CorrelationID, c.GetContextValue(ctx, c.ContextKeyCorrelationID)).Fatalf(format, args...)
}

func Infof(ctx context.Context, format string, args ...interface{}) {
	logger.WithField(CorrelationID, c.GetContextValue(ctx, c.ContextKeyCorrelationID)).Infof(format, args...)
}

func Info(ctx context.Context, msg string) {
	logger.WithField(CorrelationID, c.GetContextValue(ctx, c.ContextKeyCorrelationID)).Info(msg)
}

func Debugf(ctx context.Context, format string, args ...interface{}) {
	logger.WithField(CorrelationID, c.GetContextValue(ctx, c.ContextKeyCorrelationID)).Debug(escapeString(format, args...))
}

func Warnf(ctx context.Context, format string, args ...interface{}) {
	logger.WithField(CorrelationID, c.GetContextValue(ctx, c.ContextKeyCorrelationID)).Warnf(format, args...)
}

func Errorf(ctx context.Context, format string, args ...interface{}) {
	logger.WithField(CorrelationID, c.GetContextValue(ctx, c.ContextKeyCorrelationID)).Error(escapeString(format, args...))
}

func LogExecutionTime(ctx context.Context, start time.Time, msg string) {
	logger.WithField(CorrelationID, c.GetContextValue(ctx, c.ContextKeyCorrelationID)).Infof("%s: %v", msg, time.Since(start))
}

func escapeString(format string, args ...interface{}) string {
	message := fmt.Sprintf(format, args...)
	re := regexp.MustCompile(`(\n)|(\r\n)`)
	return re.ReplaceAllString(message, "\\n ")
}
