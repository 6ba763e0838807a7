package postgres

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcforge/levelcore/internal/config"
)

func TestInit_Unreachable(t *testing.T) {
	b := New(config.PostgresConfig{
		Host:     "127.0.0.1",
		Port:     "1",
		Username: "postgres",
		Password: "postgres",
		Database: "levelcore",
	}, slog.Default())

	err := b.Init()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "127.0.0.1:1")
	assert.Nil(t, b.Backend)
	assert.NoError(t, b.Close())
}

func TestClose_BeforeInit(t *testing.T) {
	b := New(config.PostgresConfig{}, slog.Default())
	assert.NoError(t, b.Close())
}
