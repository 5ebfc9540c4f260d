package dashboard

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chiquitos-JP/trading-dashboard/broker"
	"github.com/Chiquitos-JP/trading-dashboard/date"
)

const rakutenExtract = `約定日,受渡日,口座,取引,ティッカーコード,銘柄名,数量[株],売却/決済単価[USドル],売却/決済額[円],平均取得価額[円],実現損益[円]
2025/1/6,2025/1/8,特定,売埋,AAPL,Apple Inc,10,243.50,"370,000","350,000","20,000"
2025/1/7,2025/1/9,特定,買埋,NVDA,NVIDIA Corp,5,140.10,"105,000","110,000","-5,000"
`

const rakutenExtractSuperset = rakutenExtract +
	`2025/2/10,2025/2/12,特定,売付,TSLA,Tesla Inc,3,400.00,"180,000","170,000","10,000"
`

func testPipeline(t *testing.T, cfg Config) *Pipeline {
	t.Helper()
	fx := NewFXTable("DEXJPUS", nil)
	store := NewStore(cfg.CheckpointsDir(), nil, nil)
	return NewPipeline(cfg, testCalendar(), fx, store, nil)
}

func writeExtract(t *testing.T, cfg Config, b, name, content string) {
	t.Helper()
	dir := cfg.RawDir(b)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestPipelineRun(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataRoot = t.TempDir()
	cfg.Brokers = []string{broker.Rakuten}
	cfg.Horizon = "2025-04"
	writeExtract(t, cfg, broker.Rakuten, "realizedpl_20250110.csv", rakutenExtract)

	p := testPipeline(t, cfg)
	sum, err := p.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	assert.NotEmpty(t, sum.RunID)
	assert.Equal(t, 2, sum.Inserted)
	assert.Equal(t, 0, sum.Duplicates)
	assert.Equal(t, 2, sum.MasterSize)
	assert.Equal(t, 1, sum.Months)
	assert.Equal(t, 4, sum.PlotRows) // jan through apr
	require.Len(t, sum.Sources, 1)
	assert.Equal(t, broker.Rakuten, sum.Sources[0].Broker)
	assert.Equal(t, 2, sum.Sources[0].Rows)

	// the master artifact is in place
	master, err := LoadMaster(cfg.MasterPath("merged"))
	require.NoError(t, err)
	assert.Len(t, master, 2)
}

func TestPipelineSecondRunInsertsNothing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataRoot = t.TempDir()
	cfg.Brokers = []string{broker.Rakuten}
	writeExtract(t, cfg, broker.Rakuten, "realizedpl_20250110.csv", rakutenExtract)

	p := testPipeline(t, cfg)
	_, err := p.Run(context.Background(), RunOptions{SkipCheckpoint: true})
	require.NoError(t, err)

	sum, err := p.Run(context.Background(), RunOptions{SkipCheckpoint: true})
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Inserted)
	assert.Equal(t, 2, sum.Duplicates)
	assert.Equal(t, 2, sum.MasterSize)
}

func TestPipelineSupersetExtractInsertsNetNew(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataRoot = t.TempDir()
	cfg.Brokers = []string{broker.Rakuten}
	writeExtract(t, cfg, broker.Rakuten, "realizedpl_20250110.csv", rakutenExtract)

	p := testPipeline(t, cfg)
	_, err := p.Run(context.Background(), RunOptions{SkipCheckpoint: true})
	require.NoError(t, err)

	// a later cumulative export carries the same rows plus one new trade
	writeExtract(t, cfg, broker.Rakuten, "realizedpl_20250215.csv", rakutenExtractSuperset)
	sum, err := p.Run(context.Background(), RunOptions{SkipCheckpoint: true})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Inserted)
	assert.Equal(t, 2, sum.Months)
}

func TestPipelineSchemaMismatchSkipsFileOnly(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataRoot = t.TempDir()
	cfg.Brokers = []string{broker.Rakuten}
	writeExtract(t, cfg, broker.Rakuten, "good.csv", rakutenExtract)
	writeExtract(t, cfg, broker.Rakuten, "bad.csv", "日付,備考\n2025/1/8,メモ\n")

	p := testPipeline(t, cfg)
	sum, err := p.Run(context.Background(), RunOptions{SkipCheckpoint: true})
	require.NoError(t, err)
	require.Len(t, sum.Sources, 1)
	assert.Equal(t, 1, sum.Sources[0].Files)
	assert.Equal(t, 1, sum.Sources[0].SkippedFiles)
	assert.Equal(t, 2, sum.MasterSize)
}

func TestPipelineFreshCheckpointReusesImport(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataRoot = t.TempDir()
	cfg.Brokers = []string{broker.Rakuten}
	writeExtract(t, cfg, broker.Rakuten, "realizedpl_20250110.csv", rakutenExtract)

	p := testPipeline(t, cfg)
	_, err := p.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	// with a fresh checkpoint the import stage is reused, so a new extract
	// file is not seen until --force
	writeExtract(t, cfg, broker.Rakuten, "realizedpl_20250215.csv", rakutenExtractSuperset)
	sum, err := p.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	assert.Contains(t, sum.SkippedStages, StageRawImport)
	assert.Equal(t, 0, sum.Inserted)

	sum, err = p.Run(context.Background(), RunOptions{Force: true})
	require.NoError(t, err)
	assert.Empty(t, sum.SkippedStages)
	assert.Equal(t, 1, sum.Inserted)
}

func TestPipelineStepsSubset(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataRoot = t.TempDir()
	cfg.Brokers = []string{broker.Rakuten}
	writeExtract(t, cfg, broker.Rakuten, "realizedpl_20250110.csv", rakutenExtract)

	p := testPipeline(t, cfg)
	_, err := p.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	// re-run only the aggregation stages off the persisted master
	sum, err := p.Run(context.Background(), RunOptions{
		Force: true,
		Steps: []string{"ts_monthly", "plot_base", "plot_df"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, sum.MasterSize)
	assert.Equal(t, 1, sum.Months)
}

func TestPipelineStepsExcludedStagesWriteNoArtifacts(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataRoot = t.TempDir()
	cfg.Brokers = []string{broker.Rakuten}
	cfg.Horizon = "2025-04"
	writeExtract(t, cfg, broker.Rakuten, "realizedpl_20250110.csv", rakutenExtract)

	p := testPipeline(t, cfg)
	sum, err := p.Run(context.Background(), RunOptions{
		Steps: []string{"raw_import", "merged_with_mdays", "ts_monthly"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Months)
	assert.Zero(t, sum.PlotRows)

	for _, stage := range []Stage{StagePlotBase, StagePlotDF} {
		files, err := filepath.Glob(filepath.Join(cfg.CheckpointsDir(), string(stage)+"_*.parquet"))
		require.NoError(t, err)
		assert.Empty(t, files, "stage %s produced artifacts while excluded", stage)
	}

	// a full run writes the plot artifacts; excluding the plot stages
	// afterwards loads them instead of rewriting
	sum, err = p.Run(context.Background(), RunOptions{Force: true})
	require.NoError(t, err)
	assert.Equal(t, 4, sum.PlotRows)

	sum, err = p.Run(context.Background(), RunOptions{Force: true, Steps: []string{"ts_monthly"}})
	require.NoError(t, err)
	assert.Contains(t, sum.SkippedStages, StagePlotBase)
	assert.Contains(t, sum.SkippedStages, StagePlotDF)
	assert.Equal(t, 4, sum.PlotRows)
}

func TestPipelineReproducibleAfterCheckpointWipe(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataRoot = t.TempDir()
	cfg.Brokers = []string{broker.Rakuten}
	writeExtract(t, cfg, broker.Rakuten, "realizedpl_20250110.csv", rakutenExtract)

	p := testPipeline(t, cfg)
	_, err := p.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	before, err := LoadMaster(cfg.MasterPath("merged"))
	require.NoError(t, err)

	// checkpoints are a cache, not a source of truth
	require.NoError(t, os.RemoveAll(cfg.CheckpointsDir()))
	_, err = p.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	after, err := LoadMaster(cfg.MasterPath("merged"))
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRunSummaryMarkdown(t *testing.T) {
	sum := &RunSummary{
		RunID:    "01TESTRUN",
		Date:     date.Today(),
		Sources:  []SourceSummary{{Broker: broker.Rakuten, Files: 1, Rows: 2}},
		Inserted: 2,
	}
	md := sum.Markdown()
	assert.Contains(t, md, "01TESTRUN")
	assert.Contains(t, md, "rakuten")
	assert.Contains(t, md, "inserted: **2**")
}
