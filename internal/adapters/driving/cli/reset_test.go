package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetCmd_DeletesResourcesAndClearsCache(t *testing.T) {
	tp := setupPipeline(t)
	tp.reader.Add(actSourceItem("1"), actSourceItem("2"))

	_, err := runCommand(t, "ingest", "--sources", "act")
	require.NoError(t, err)
	require.Equal(t, 2, tp.store.Len())

	out, err := runCommand(t, "reset", "act")
	require.NoError(t, err)

	assert.Contains(t, out, "Deleted 2 act resources.")
	assert.Contains(t, out, "Progress cache cleared.")
	assert.Equal(t, 0, tp.store.Len())
	total, err := tp.cache.Total(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestResetCmd_RequiresSources(t *testing.T) {
	setupPipeline(t)

	_, err := runCommand(t, "reset")
	require.Error(t, err)
}
