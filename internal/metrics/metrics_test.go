package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goforj/persist"
)

type settings struct {
	Theme string
}

func TestObserverCountsCacheOperations(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := New(reg)
	require.NoError(t, err)

	c := persist.New(persist.NewMemoryStore(context.Background()), persist.WithObserver(obs))
	_, err = persist.Get[settings](c, "settings")
	require.NoError(t, err)
	_, err = persist.Get[settings](c, "settings")
	require.NoError(t, err)
	require.NoError(t, c.Sync().Err())

	driver := string(persist.DriverMemory)
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.ops.WithLabelValues(persist.OpLoad, driver, "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.ops.WithLabelValues(persist.OpGet, driver, "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.ops.WithLabelValues(persist.OpGet, driver, "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.ops.WithLabelValues(persist.OpSave, driver, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.ops.WithLabelValues(persist.OpSync, driver, "ok")))
	assert.Equal(t, 4, testutil.CollectAndCount(obs.duration))
}

func TestObserverLabelsErrors(t *testing.T) {
	obs, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	obs.OnPersistOp(context.Background(), persist.OpSave, "x", false, errors.New("boom"), 0, persist.DriverFile)
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.ops.WithLabelValues(persist.OpSave, "file", "error")))
}

func TestNewRejectsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	assert.Error(t, err)
}
