package tasks

import (
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/mentorhub/mentorhub-api/pkg/logger"
	"go.uber.org/zap"
)

// asynqLogger routes asynq's internal logs through the service logger
type asynqLogger struct {
	log *zap.Logger
}

var _ asynq.Logger = (*asynqLogger)(nil)

// NewAsynqLogger returns an asynq.Logger backed by pkg/logger
func NewAsynqLogger() asynq.Logger {
	return &asynqLogger{log: logger.With(zap.String("component", "asynq"))}
}

func (l *asynqLogger) Debug(args ...interface{}) { l.log.Debug(fmt.Sprint(args...)) }
func (l *asynqLogger) Info(args ...interface{})  { l.log.Info(fmt.Sprint(args...)) }
func (l *asynqLogger) Warn(args ...interface{})  { l.log.Warn(fmt.Sprint(args...)) }
func (l *asynqLogger) Error(args ...interface{}) { l.log.Error(fmt.Sprint(args...)) }
func (l *asynqLogger) Fatal(args ...interface{}) { l.log.Fatal(fmt.Sprint(args...)) }
