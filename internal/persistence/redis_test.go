package persistence

import (
	"context"
	"testing"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ticketflow/ticketflow/internal/config"
)

func TestNewRedis_Disabled(t *testing.T) {
	r := NewRedis(config.RedisConfig{}, zap.NewNop())
	assert.False(t, r.Enabled())
	assert.ErrorIs(t, r.Ping(context.Background()), ErrRedisDisabled)
	assert.NotPanics(t, r.Close)
}

func TestNewRedis_Connected(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	r := NewRedis(config.RedisConfig{Addr: m.Addr()}, zap.NewNop())
	defer r.Close()

	assert.True(t, r.Enabled())
	assert.NoError(t, r.Ping(context.Background()))
}

func TestPostgres_NilSafe(t *testing.T) {
	var p *Postgres
	assert.Nil(t, p.Handle())
	assert.Error(t, p.Ping(context.Background()))
	assert.NotPanics(t, p.Close)
}
