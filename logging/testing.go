package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// NewTestLogger returns a new logger that outputs Debug+ logs through `tb.Log` so that log
// lines are associated with the test that wrote them.
func NewTestLogger(tb testing.TB) Logger {
	logger, _ := NewObservedTestLogger(tb)
	return logger
}

// NewObservedTestLogger is like NewTestLogger but also saves logs to an in memory observer.
func NewObservedTestLogger(tb testing.TB) (Logger, *observer.ObservedLogs) {
	tb.Helper()
	level := NewAtomicLevelAt(DEBUG)
	observerCore, observedLogs := observer.New(level.AtomicLevel)
	testCore := zaptest.NewLogger(tb, zaptest.Level(level.AtomicLevel)).Core()
	sugar := zap.New(zapcore.NewTee(testCore, observerCore), zap.AddCaller()).Sugar()
	return &impl{SugaredLogger: sugar, level: level}, observedLogs
}
