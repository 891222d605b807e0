package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/quantsim/pkg/config"
)

func TestNew_EmptyURL(t *testing.T) {
	_, err := New(context.Background(), config.DatabaseConfig{})
	require.Error(t, err)
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New(context.Background(), config.DatabaseConfig{URL: "://not-a-url"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse database URL")
}

func TestIntegration(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := New(ctx, config.DatabaseConfig{URL: url, MaxConns: 4})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Ping(ctx))
	require.NoError(t, EnsureSchema(ctx, db.Pool))
	// 두 번 실행해도 안전해야 함
	require.NoError(t, EnsureSchema(ctx, db.Pool))

	status := db.HealthCheck(ctx)
	assert.True(t, status.Healthy)
	assert.Equal(t, int32(4), status.MaxConns)
}
