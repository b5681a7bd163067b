package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetupMetrics(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.Nil(t, SetupMetrics(ctx, "", nil))
	assert.NotNil(t, SetupMetrics(ctx, "127.0.0.1:0", nil))
}
