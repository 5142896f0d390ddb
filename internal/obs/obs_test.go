package obs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	log, err := NewLogger("warn", "json")
	require.NoError(t, err)
	assert.Equal(t, "warning", log.GetLevel().String())

	_, err = NewLogger("loud", "json")
	assert.Error(t, err)

	_, err = NewLogger("info", "xml")
	assert.Error(t, err)
}

func TestLogError(t *testing.T) {
	log, err := NewLogger("info", "json")
	require.NoError(t, err)
	var buf bytes.Buffer
	log.SetOutput(&buf)

	LogError(log, "directory", "LoadAccounts", errors.New("boom"), map[string]any{"company_id": "emp-1"})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "boom", entry["msg"])
	assert.Equal(t, "directory", entry["module"])
	assert.Equal(t, "LoadAccounts", entry["op"])
	assert.Equal(t, "emp-1", entry["company_id"])
	assert.Equal(t, "error", entry["level"])
}

func TestLogNotifier(t *testing.T) {
	log, err := NewLogger("info", "json")
	require.NoError(t, err)
	var buf bytes.Buffer
	log.SetOutput(&buf)

	LogNotifier{Log: log}.Notify(context.Background(), Notice{Level: LevelWarn, Title: "Plano de contas", Message: "não carregado"})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, "Plano de contas", entry["notice"])
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.PostingsDerived.WithLabelValues("principal").Add(2)
	m.InstallmentBatches.Inc()

	assert.InDelta(t, 2, testutil.ToFloat64(m.PostingsDerived.WithLabelValues("principal")), 0.001)
	assert.InDelta(t, 1, testutil.ToFloat64(m.InstallmentBatches), 0.001)

	// Registering twice on the same registry panics.
	assert.Panics(t, func() { NewMetrics(reg) })
}
