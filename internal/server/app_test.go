package server

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/turismap/internal/logging"
	"github.com/dmitrijs2005/turismap/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.EndpointAddrGRPC = "127.0.0.1:0"
	c.EndpointAddrHTTP = "127.0.0.1:0"
	return c
}

func TestNewApp_UnknownBackend(t *testing.T) {
	c := testConfig()
	c.StorageBackend = "cassandra"

	_, err := newApp(context.Background(), c, logging.Nop())
	assert.ErrorContains(t, err, "unknown storage backend")
}

func TestNewApp_MemoryWithoutKafka(t *testing.T) {
	app, err := newApp(context.Background(), testConfig(), logging.Nop())
	require.NoError(t, err)

	assert.NotNil(t, app.users)
	assert.NotNil(t, app.documents)
	assert.Nil(t, app.kafka)
	assert.Nil(t, app.relay)
}

func TestNewApp_KafkaBrokersEnableRelay(t *testing.T) {
	c := testConfig()
	c.KafkaBrokers = []string{"127.0.0.1:1"}

	app, err := newApp(context.Background(), c, logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { app.close(context.Background()) })

	assert.NotNil(t, app.kafka)
	assert.NotNil(t, app.relay)
}

func TestRun_StopsOnCancel(t *testing.T) {
	app, err := newApp(context.Background(), testConfig(), logging.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	select {
	case err := <-done:
		t.Fatalf("app exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop after cancel")
	}
}

func TestRun_FailsOnBadAddress(t *testing.T) {
	c := testConfig()
	c.EndpointAddrGRPC = "127.0.0.1:99999"

	app, err := newApp(context.Background(), c, logging.Nop())
	require.NoError(t, err)

	select {
	case err := <-runAsync(app):
		assert.ErrorContains(t, err, "grpc")
	case <-time.After(5 * time.Second):
		t.Fatal("app did not report the listen error")
	}
}

func runAsync(app *App) <-chan error {
	done := make(chan error, 1)
	go func() { done <- app.Run(context.Background()) }()
	return done
}
