package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfgpkg "github.com/KaramelBytes/rentlens-cli/internal/config"
)

const fixtureBaseline = "AssetName,FloorPlanGroupName,RecommendationDate,InputtedRent,recc_rate,recc_rate_lower,recc_rate_upper,User\n" +
	"Cortland Northlake,1x1,2024-06-03,\"1,234.50\",1234.5,1200,1260,RM One\n" +
	"Cortland Northlake,2x1,2024-06-04,1300,1290,1250,1330,RM One\n" +
	"Cortland Northlake,2x2,2024-06-05,1500,1400,1350,1450,RM One\n" +
	"Cortland 3131,2x2,2024-06-05,1500,1490,1450,1500,RM Two\n" +
	"Cortland 3131,1x1,2024-06-06,1100,,1050,1150,RM Two\n"

const fixtureAssets = "AssetName,MarketName,AcquisitionDate\n" +
	"Cortland Northlake,\"Atlanta-Sandy Springs-Roswell, GA\",2019-03-15\n" +
	"Cortland 3131,\"Denver-Aurora-Lakewood, CO\",2021-07-01\n"

type workspace struct {
	baseline, assets, figures string
}

func newWorkspace(t *testing.T) workspace {
	t.Helper()
	root := t.TempDir()
	t.Setenv("HOME", root)
	ws := workspace{
		baseline: filepath.Join(root, "baseline_merged"),
		assets:   filepath.Join(root, "vw_AssetDetailActive.csv"),
		figures:  filepath.Join(root, "figures"),
	}
	require.NoError(t, os.MkdirAll(ws.baseline, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(ws.baseline, "part1.csv"), []byte(fixtureBaseline), 0o644))
	require.NoError(t, os.WriteFile(ws.assets, []byte(fixtureAssets), 0o644))
	return ws
}

func (ws workspace) args(args ...string) []string {
	return append(args, "--baseline-dir", ws.baseline, "--asset-file", ws.assets, "--figures-dir", ws.figures)
}

// resetFlags clears values and Changed state that persist between Execute calls.
func resetFlags(c *cobra.Command) {
	reset := func(fs *pflag.FlagSet) {
		fs.VisitAll(func(fl *pflag.Flag) {
			if sv, ok := fl.Value.(pflag.SliceValue); ok {
				_ = sv.Replace(nil)
			} else {
				_ = fl.Value.Set(fl.DefValue)
			}
			fl.Changed = false
		})
	}
	reset(c.PersistentFlags())
	reset(c.Flags())
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd executes the root command with args and returns its stdout.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	cfg = nil
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"figures", "chart", "summary", "list", "serve", "config"} {
		assert.True(t, names[name], "expected subcommand %q", name)
	}
	assert.Equal(t, "rentlens", rootCmd.Use)
}

func TestFigures_WritesArtifactsAndManifest(t *testing.T) {
	ws := newWorkspace(t)
	_, err := runCmd(t, ws.args("figures", "--quiet", "--xlsx")...)
	require.NoError(t, err)

	for _, f := range []string{
		"acc_over_time.png",
		"acc_by_unitgroup.png",
		"acc_bymarket.png",
		"acc_bymarket.xlsx",
		"low_acc_byproperty.png",
		filepath.Join("adj_over_time", "Cortland Northlake.png"),
		filepath.Join("adj_over_time", "Denver-Aurora-Lakewood, CO.png"),
	} {
		assert.FileExists(t, filepath.Join(ws.figures, f))
	}

	b, err := os.ReadFile(filepath.Join(ws.figures, "manifest.json"))
	require.NoError(t, err)
	var m struct {
		ID    string `json:"id"`
		Stats struct {
			RawRows         int `json:"raw_rows"`
			DroppedNullRate int `json:"dropped_null_rate"`
			Prepared        int `json:"prepared"`
		} `json:"stats"`
		Failures map[string]string `json:"failures"`
	}
	require.NoError(t, json.Unmarshal(b, &m))
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, 5, m.Stats.RawRows)
	assert.Equal(t, 1, m.Stats.DroppedNullRate)
	assert.Equal(t, 4, m.Stats.Prepared)
	assert.Contains(t, m.Failures, "Phoenix-Mesa-Scottsdale, AZ", "featured market without data is reported, not fatal")
}

func TestChart_RequiresOneSelection(t *testing.T) {
	ws := newWorkspace(t)
	_, err := runCmd(t, ws.args("chart")...)
	assert.Error(t, err)

	_, err = runCmd(t, ws.args("chart", "--market", "Nowhere, ZZ")...)
	assert.Error(t, err)

	_, err = runCmd(t, ws.args("chart", "--asset", "Cortland Northlake")...)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(ws.figures, "adj_over_time", "Cortland Northlake.png"))
}

func TestList(t *testing.T) {
	ws := newWorkspace(t)
	out, err := runCmd(t, ws.args("list", "--markets")...)
	require.NoError(t, err)
	assert.Equal(t, "- Atlanta-Sandy Springs-Roswell, GA\n- Denver-Aurora-Lakewood, CO\n", out)

	_, err = runCmd(t, ws.args("list")...)
	assert.Error(t, err)
}

func TestSummary_MarkdownToFile(t *testing.T) {
	ws := newWorkspace(t)
	path := filepath.Join(t.TempDir(), "summary.md")
	_, err := runCmd(t, ws.args("summary", "--format", "markdown", "-o", path)...)
	require.NoError(t, err)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "[DATASET SUMMARY]")
	assert.Contains(t, string(b), "### Price Change Metrics by Market")

	_, err = runCmd(t, ws.args("summary", "--format", "html")...)
	assert.Error(t, err)
}

func TestConfigSet_ListAndScalarKeys(t *testing.T) {
	newWorkspace(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: info\n"), 0o644))

	_, err := runCmd(t, "--config", path, "config", "set", "batch_markets", "Denver-Aurora-Lakewood, CO", "Colorado Springs, CO")
	require.NoError(t, err)
	_, err = runCmd(t, "--config", path, "config", "set", "rolling_window", "30")
	require.NoError(t, err)
	_, err = runCmd(t, "--config", path, "config", "set", "rolling_window", "30", "40")
	assert.Error(t, err)
	_, err = runCmd(t, "--config", path, "config", "set", "no_such_key", "1")
	assert.Error(t, err)

	c, err := cfgpkg.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Denver-Aurora-Lakewood, CO", "Colorado Springs, CO"}, c.BatchMarkets)
	assert.Equal(t, 30, c.RollingWindow)
}

func TestMergeNames(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, mergeNames([]string{"a", "b"}, []string{"b", "", "c"}))
}
