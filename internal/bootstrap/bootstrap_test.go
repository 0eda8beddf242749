package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payment-gateway/internal/adapters/messaging/logbroker"
	"payment-gateway/internal/config"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpenStorage_Memory(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.Driver = config.DriverMemory

	st, err := OpenStorage(context.Background(), cfg, discard())
	require.NoError(t, err)
	defer st.Close()

	assert.Equal(t, config.DriverMemory, st.Driver)
	assert.NotNil(t, st.Merchants)
	assert.NotNil(t, st.Jobs)
	assert.NoError(t, st.Ping(context.Background()))
}

func TestOpenStorage_UnknownDriver(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.Driver = "sqlite"

	_, err := OpenStorage(context.Background(), cfg, discard())
	assert.ErrorContains(t, err, "sqlite")
}

func TestOpenBroker_Log(t *testing.T) {
	cfg := &config.Config{}
	cfg.Broker.Kind = config.BrokerLog

	b, err := OpenBroker(context.Background(), cfg, discard())
	require.NoError(t, err)

	assert.IsType(t, &logbroker.Broker{}, b)
	assert.NoError(t, b.Close())
}
