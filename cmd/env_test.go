package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/course-intel/internal/config"
	"github.com/sells-group/course-intel/internal/contact"
	"github.com/sells-group/course-intel/internal/cost"
	"github.com/sells-group/course-intel/internal/model"
	"github.com/sells-group/course-intel/internal/pipeline"
	"github.com/sells-group/course-intel/internal/store"
)

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	c := &config.Config{}
	c.Store.Driver = "sqlite"
	c.Store.DatabaseURL = filepath.Join(t.TempDir(), "courses.db")
	c.Store.UseTestTables = true
	c.Provider.TimeoutSecs = 5
	c.Waterfall.SuccessThreshold = 2
	c.Waterfall.MinEmailConfidence = 90
	c.Blocklist.Path = filepath.Join(t.TempDir(), "blocklist.yaml")
	return c
}

func TestRatesFrom(t *testing.T) {
	p := config.PricingConfig{
		Anthropic: map[string]config.ModelPricing{"claude-test": {Input: 1, Output: 2}},
	}
	p.Apollo.PerCredit = 0.05
	p.Hunter.PerRequest = 0.03

	rates := ratesFrom(p)
	calc := cost.NewCalculator(rates)
	assert.InDelta(t, 0.10, calc.Apollo(2), 1e-9)
	assert.InDelta(t, 0.03, calc.Hunter(1), 1e-9)
	assert.InDelta(t, 3.0, calc.Claude("claude-test", 1_000_000, 1_000_000), 1e-9)

	defaults := cost.DefaultRates()
	assert.Equal(t, defaults.Perplexity, rates.Perplexity, "unset sections keep default rates")
}

func TestWaterfallConfig(t *testing.T) {
	c := sqliteConfig(t)
	c.Waterfall.SuccessThreshold = 3
	c.Waterfall.TargetTitles = []string{"General Manager"}

	wf, err := waterfallConfig(c)
	require.NoError(t, err)
	assert.Equal(t, 3, wf.SuccessThreshold)
	assert.Equal(t, []string{"General Manager"}, wf.TargetTitles)
	assert.Len(t, wf.Stages, 5)

	path := filepath.Join(t.TempDir(), "waterfall.yaml")
	require.NoError(t, os.WriteFile(path, []byte("waterfall:\n  max_cost_usd: 0.5\n  stages:\n    - name: domain_email\n    - name: b2b\n"), 0o644))
	c.Waterfall.ConfigPath = path
	wf, err = waterfallConfig(c)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, wf.MaxCostUSD, 1e-9)
	require.Len(t, wf.Stages, 2)
	assert.Equal(t, model.SourceDomainEmail, wf.Stages[0].Name)
	assert.Equal(t, 3, wf.SuccessThreshold)

	c.Waterfall.ConfigPath = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = waterfallConfig(c)
	assert.Error(t, err)
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	c := sqliteConfig(t)
	c.Store.Driver = "mysql"
	_, err := openStore(context.Background(), c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver")
}

func TestOpenStore_Supabase(t *testing.T) {
	c := sqliteConfig(t)
	c.Store.Driver = "supabase"
	c.Supabase.URL = "https://proj.supabase.co"
	c.Supabase.AnonKey = "anon"

	st, err := openStore(context.Background(), c)
	require.NoError(t, err)
	_, ok := st.(*store.SupabaseStore)
	assert.True(t, ok)
}

// With no provider credentials every stage is skipped and the classifier
// never runs, so the run fails validation without any network access.
func TestBuildPipeline_NoCredentials(t *testing.T) {
	c := sqliteConfig(t)
	ctx := context.Background()

	st, err := openStore(ctx, c)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(ctx))

	p, err := buildPipeline(st, c)
	require.NoError(t, err)

	res := p.EnrichCourse(ctx, pipeline.Input{CourseName: "Deercroft Golf & CC", StateCode: "NC", Domain: "deercroft.com"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "invalid tier")
	assert.Zero(t, res.Summary.TotalCostUSD)

	rec, err := st.GetStaging(ctx, res.StagingID)
	require.NoError(t, err)
	assert.Equal(t, model.StagingValidationFailed, rec.Status)

	var buf bytes.Buffer
	require.NoError(t, writeResult(&buf, res))
	assert.Contains(t, buf.String(), `"success": false`)
}

func TestBuildPipeline_BadBlocklist(t *testing.T) {
	c := sqliteConfig(t)
	require.NoError(t, os.WriteFile(c.Blocklist.Path, []byte("person_ids: [unterminated"), 0o644))

	_, err := buildPipeline(nil, c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blocklist")
}

func TestListBlocklist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocklist.yaml")
	added, err := contact.AppendBlocklistFile(path, "5f00aa00bb00cc00dd00ee00")
	require.NoError(t, err)
	require.True(t, added)

	var buf bytes.Buffer
	require.NoError(t, listBlocklist(&buf, path, []string{"cfg-id"}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.ElementsMatch(t, append([]string{"5f00aa00bb00cc00dd00ee00", "cfg-id"}, contact.SeedPersonIDs...), lines)
}
