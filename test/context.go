package test

import (
	"context"
	"testing"

	"github.com/outofforest/logger"
)

// NewContext returns context carrying the logger, cancelled when test finishes.
func NewContext(t testing.TB) context.Context {
	ctx, cancel := context.WithCancel(logger.WithLogger(context.Background(), logger.New(logger.DefaultConfig)))
	t.Cleanup(cancel)
	return ctx
}
