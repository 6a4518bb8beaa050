package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/andresuchdata/inventory-forecast/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-forecast/backend-go/internal/export"
	"github.com/andresuchdata/inventory-forecast/backend-go/internal/forecast"
	"github.com/andresuchdata/inventory-forecast/backend-go/internal/service"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCLI_Commands(t *testing.T) {
	a := newCLI()

	names := make([]string, 0, len(a.Commands))
	for _, cmd := range a.Commands {
		names = append(names, cmd.Name)
	}
	assert.ElementsMatch(t, []string{"run", "item", "history"}, names)
}

func TestRun_RejectsUnknownFormat(t *testing.T) {
	err := newCLI().Run([]string{"forecast", "run", "--format", "xml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported export format")
}

func TestItem_RequiresSKU(t *testing.T) {
	err := newCLI().Run([]string{"forecast", "item"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one SKU")
}

func TestOpenOutput(t *testing.T) {
	w, closeFn, err := openOutput("-")
	require.NoError(t, err)
	assert.Equal(t, os.Stdout, w)
	closeFn()

	path := filepath.Join(t.TempDir(), "forecasts.json")
	w, closeFn, err = openOutput(path)
	require.NoError(t, err)
	_, err = w.Write([]byte("[]"))
	require.NoError(t, err)
	closeFn()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	_, _, err = openOutput(filepath.Join(t.TempDir(), "missing", "out.json"))
	assert.Error(t, err)
}

func TestAlreadyUploaded(t *testing.T) {
	startedAt := time.Date(2026, 5, 1, 8, 30, 0, 0, time.UTC)
	jsonKey := service.SnapshotKey("forecasts/", startedAt, export.FormatJSON)

	_, ok := alreadyUploaded(nil, export.FormatJSON)
	assert.False(t, ok)

	_, ok = alreadyUploaded(&service.RunInfo{Status: domain.RunStatusCompleted}, export.FormatJSON)
	assert.False(t, ok)

	key, ok := alreadyUploaded(&service.RunInfo{SnapshotKey: jsonKey}, export.FormatJSON)
	assert.True(t, ok)
	assert.Equal(t, "forecasts/20260501T083000Z.json", key)

	_, ok = alreadyUploaded(&service.RunInfo{SnapshotKey: jsonKey}, export.FormatCSV)
	assert.False(t, ok)
}

func TestWriteEvaluation_IncludesMultipliers(t *testing.T) {
	eval, err := forecast.NewDefaultEngine().Evaluate(
		domain.ItemAnalytics{SKU: "ELE-001", InventoryCount: 5, MinStockLevel: 10, Sales30d: 300, AvgRating60d: 3},
		domain.IntentSignal{CartCount7d: 2},
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeEvaluation(&buf, eval))

	var body map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &body))
	multipliers, ok := body["multipliers"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 300.0, multipliers["base"])
	assert.Equal(t, 1.2, multipliers["cart"])
}
