package manifest_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/rentlens-cli/internal/baseline"
	"github.com/KaramelBytes/rentlens-cli/internal/manifest"
)

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	m := manifest.New(dir, manifest.Inputs{BaselineDir: "data/baseline_merged", Mode: "detailed"})
	_, err := uuid.Parse(m.ID)
	require.NoError(t, err)

	m.Stats = baseline.LoadStats{Fragments: 3, Prepared: 120}
	m.AddArtifact(manifest.KindTrend, "acc_over_time", filepath.Join(dir, "acc_over_time.png"))
	m.AddArtifact(manifest.KindChart, "Cortland Northlake", filepath.Join(dir, "adj_over_time", "Cortland Northlake.png"))
	m.AddFailure("Nowhere, ZZ", errors.New("no records"))
	require.NoError(t, m.Save())

	got, err := manifest.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)
	assert.Equal(t, 120, got.Stats.Prepared)
	assert.Equal(t, "no records", got.Failures["Nowhere, ZZ"])
	assert.False(t, got.FinishedAt.IsZero())

	a, ok := got.Artifact(manifest.KindChart, "Cortland Northlake")
	require.True(t, ok)
	assert.Equal(t, "adj_over_time/Cortland Northlake.png", a.Path)
	a, ok = got.Artifact(manifest.KindTrend, "acc_over_time")
	require.True(t, ok)
	assert.Equal(t, "acc_over_time.png", a.Path)
}

func TestLoadMissing(t *testing.T) {
	_, err := manifest.Load(t.TempDir())
	assert.Error(t, err)
}
