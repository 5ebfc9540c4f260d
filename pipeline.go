package dashboard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/Chiquitos-JP/trading-dashboard/broker"
	"github.com/Chiquitos-JP/trading-dashboard/calendar"
	"github.com/Chiquitos-JP/trading-dashboard/date"
)

// Pipeline runs the full ingestion and aggregation sequence: import and
// normalize raw extracts, merge into the master record set, aggregate monthly
// KPIs, generate the future axis and assemble the plot table. Every stage
// transition goes through the checkpoint store.
type Pipeline struct {
	cfg   Config
	cal   *calendar.Calendar
	fx    *FXTable
	store *Store
	log   *zap.Logger
}

// NewPipeline wires a pipeline from its collaborators. A nil logger disables
// logging.
func NewPipeline(cfg Config, cal *calendar.Calendar, fx *FXTable, store *Store, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{cfg: cfg, cal: cal, fx: fx, store: store, log: log}
}

// RunOptions control one pipeline run.
type RunOptions struct {
	// Force recomputes every stage regardless of checkpoint freshness.
	Force bool
	// SkipCheckpoint bypasses the checkpoint store entirely, reads and writes.
	SkipCheckpoint bool
	// Steps restricts the run to the named stages; prior stages are loaded
	// from their artifacts. Names may omit the numeric prefix.
	Steps []string
}

func (o RunOptions) enabled(stage Stage) bool {
	if len(o.Steps) == 0 {
		return true
	}
	name := string(stage)
	short := name
	if _, rest, ok := strings.Cut(name, "_"); ok {
		short = rest
	}
	for _, s := range o.Steps {
		if s == name || s == short {
			return true
		}
	}
	return false
}

// reuse reports whether a stage's fresh checkpoint should stand in for
// recomputation.
func (p *Pipeline) reuse(stage Stage, opts RunOptions) bool {
	return !opts.Force && !opts.SkipCheckpoint && p.store.Fresh(stage)
}

func (p *Pipeline) checkpoint(stage Stage, opts RunOptions, save func() (string, error)) error {
	if opts.SkipCheckpoint {
		return nil
	}
	_, err := save()
	return err
}

// SourceSummary reports one broker's contribution to a run.
type SourceSummary struct {
	Broker       string
	Files        int
	SkippedFiles int // files failing schema mapping
	Rows         int
	Dropped      broker.DropCounts
	MissingFX    int
	BadSymbol    int
}

// RunSummary is the user-visible outcome of a run: what came in, what was
// excluded and why, and which stages were reused or failed.
type RunSummary struct {
	RunID         string
	Date          date.Date
	Sources       []SourceSummary
	Inserted      int
	Duplicates    int
	MasterSize    int
	Months        int
	PlotRows      int
	SkippedStages []Stage
	FailedStage   Stage
}

// Markdown renders the summary as a small markdown report.
func (s *RunSummary) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Pipeline run `%s` — %s\n\n", s.RunID, s.Date)
	if len(s.Sources) > 0 {
		b.WriteString("| broker | files | skipped files | rows | dropped | missing fx | bad symbol |\n")
		b.WriteString("|---|---|---|---|---|---|---|\n")
		for _, src := range s.Sources {
			fmt.Fprintf(&b, "| %s | %d | %d | %d | %d | %d | %d |\n",
				src.Broker, src.Files, src.SkippedFiles, src.Rows,
				src.Dropped.Total(), src.MissingFX, src.BadSymbol)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "- inserted: **%d**\n", s.Inserted)
	fmt.Fprintf(&b, "- duplicates skipped: %d\n", s.Duplicates)
	fmt.Fprintf(&b, "- master records: %d\n", s.MasterSize)
	fmt.Fprintf(&b, "- months aggregated: %d\n", s.Months)
	fmt.Fprintf(&b, "- plot rows: %d\n", s.PlotRows)
	if len(s.SkippedStages) > 0 {
		names := make([]string, len(s.SkippedStages))
		for i, st := range s.SkippedStages {
			names[i] = string(st)
		}
		fmt.Fprintf(&b, "- stages reused from checkpoint: %s\n", strings.Join(names, ", "))
	}
	if s.FailedStage != "" {
		fmt.Fprintf(&b, "- **failed stage: %s**\n", s.FailedStage)
	}
	return b.String()
}

// Run executes the pipeline. Record-level problems are excluded and counted
// in the summary; a stage that cannot produce output at all halts the run,
// leaving earlier checkpoints intact. The returned summary is valid even on
// error.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (*RunSummary, error) {
	sum := &RunSummary{RunID: ulid.Make().String(), Date: date.Today()}
	log := p.log.With(zap.String("run", sum.RunID))
	log.Info("pipeline start", zap.Strings("brokers", p.cfg.Brokers))

	incoming, err := p.stageImport(sum, opts, log)
	if err != nil {
		sum.FailedStage = StageRawImport
		return sum, fmt.Errorf("stage %s: %w", StageRawImport, err)
	}
	if err := ctx.Err(); err != nil {
		return sum, err
	}

	master, err := p.stageMerge(sum, opts, incoming, log)
	if err != nil {
		sum.FailedStage = StageMerged
		return sum, fmt.Errorf("stage %s: %w", StageMerged, err)
	}
	if err := ctx.Err(); err != nil {
		return sum, err
	}

	kpis, err := p.stageMonthly(sum, opts, master)
	if err != nil {
		sum.FailedStage = StageMonthly
		return sum, fmt.Errorf("stage %s: %w", StageMonthly, err)
	}
	if err := ctx.Err(); err != nil {
		return sum, err
	}

	axis, err := p.stageAxis(sum, opts, master)
	if err != nil {
		sum.FailedStage = StagePlotBase
		return sum, fmt.Errorf("stage %s: %w", StagePlotBase, err)
	}
	if err := ctx.Err(); err != nil {
		return sum, err
	}

	if err := p.stagePlot(sum, opts, kpis, axis); err != nil {
		sum.FailedStage = StagePlotDF
		return sum, fmt.Errorf("stage %s: %w", StagePlotDF, err)
	}

	log.Info("pipeline done",
		zap.Int("inserted", sum.Inserted),
		zap.Int("duplicates", sum.Duplicates),
		zap.Int("master", sum.MasterSize))
	return sum, nil
}

// stageImport reads and normalizes the raw extracts of every configured
// broker, in parallel. Each source is a pure transform with no shared state,
// so goroutine-per-broker is safe.
func (p *Pipeline) stageImport(sum *RunSummary, opts RunOptions, log *zap.Logger) ([]CanonicalRecord, error) {
	stage := StageRawImport
	if !opts.enabled(stage) || p.reuse(stage, opts) {
		rows, _, err := LoadLatest[masterRow](p.store, stage)
		if err == nil {
			sum.SkippedStages = append(sum.SkippedStages, stage)
			return decodeRecords(rows)
		}
		if !opts.enabled(stage) {
			return nil, err
		}
		// fall through and recompute
	}

	norm := NewNormalizer(p.fx, p.cfg.RateMode(), p.cfg.ReportingCurrency, log)
	type result struct {
		src     SourceSummary
		records []CanonicalRecord
		err     error
	}
	ch := make(chan result, len(p.cfg.Brokers))
	for _, b := range p.cfg.Brokers {
		go func(b string) {
			src, records, err := p.importBroker(b, norm, log)
			ch <- result{src: src, records: records, err: err}
		}(b)
	}

	var incoming []CanonicalRecord
	for range p.cfg.Brokers {
		r := <-ch
		if r.err != nil {
			return nil, r.err
		}
		sum.Sources = append(sum.Sources, r.src)
		incoming = append(incoming, r.records...)
	}
	sort.Slice(sum.Sources, func(i, j int) bool { return sum.Sources[i].Broker < sum.Sources[j].Broker })

	err := p.checkpoint(stage, opts, func() (string, error) {
		return SaveCheckpoint(p.store, stage, encodeRecords(incoming))
	})
	return incoming, err
}

func (p *Pipeline) importBroker(name string, norm *Normalizer, log *zap.Logger) (SourceSummary, []CanonicalRecord, error) {
	src := SourceSummary{Broker: name}
	reader, err := broker.ForBroker(name)
	if err != nil {
		return src, nil, err
	}
	files, err := filepath.Glob(filepath.Join(p.cfg.RawDir(name), "*.csv"))
	if err != nil {
		return src, nil, fmt.Errorf("list %s extracts: %w", name, err)
	}
	sort.Strings(files)

	var records []CanonicalRecord
	for _, file := range files {
		f, err := os.Open(file)
		if err != nil {
			return src, nil, fmt.Errorf("open extract: %w", err)
		}
		ex, err := reader.Read(f)
		f.Close()
		if errors.Is(err, broker.ErrSchemaMismatch) {
			src.SkippedFiles++
			log.Warn("extract skipped", zap.String("file", file), zap.Error(err))
			continue
		}
		if err != nil {
			return src, nil, fmt.Errorf("read extract %s: %w", file, err)
		}
		res, err := norm.Normalize(ex)
		if err != nil {
			return src, nil, err
		}
		src.Files++
		src.Rows += len(res.Records)
		src.Dropped = src.Dropped.Add(res.Dropped)
		src.MissingFX += res.MissingFX
		src.BadSymbol += res.BadSymbol
		records = append(records, res.Records...)
	}
	return src, records, nil
}

// stageMerge folds the incoming records into the persisted master record
// set. The master artifact is the source of truth and is written whenever the
// stage runs, regardless of checkpoint flags.
func (p *Pipeline) stageMerge(sum *RunSummary, opts RunOptions, incoming []CanonicalRecord, log *zap.Logger) ([]CanonicalRecord, error) {
	stage := StageMerged
	mergedPath := p.cfg.MasterPath("merged")
	if !opts.enabled(stage) {
		master, err := LoadMaster(mergedPath)
		if err != nil {
			return nil, err
		}
		sum.MasterSize = len(master)
		return master, nil
	}

	existing, err := LoadMaster(mergedPath)
	if err != nil {
		return nil, err
	}
	master, inserted, duplicates := Merge(existing, incoming)
	if err := CheckIntegrity(master); err != nil {
		return nil, err
	}
	sum.Inserted = inserted
	sum.Duplicates = duplicates
	sum.MasterSize = len(master)
	log.Info("merged", zap.Int("inserted", inserted), zap.Int("duplicates", duplicates))

	if err := SaveMaster(mergedPath, master); err != nil {
		return nil, err
	}
	if err := p.savePerBrokerMasters(incoming); err != nil {
		return nil, err
	}
	err = p.checkpoint(stage, opts, func() (string, error) {
		return SaveCheckpoint(p.store, stage, encodeRecords(master))
	})
	return master, err
}

// savePerBrokerMasters maintains one master artifact per broker alongside the
// merged one.
func (p *Pipeline) savePerBrokerMasters(incoming []CanonicalRecord) error {
	byBroker := make(map[string][]CanonicalRecord)
	for _, r := range incoming {
		byBroker[r.Broker] = append(byBroker[r.Broker], r)
	}
	for b, records := range byBroker {
		existing, err := LoadMaster(p.cfg.MasterPath(b))
		if err != nil {
			return err
		}
		master, _, _ := Merge(existing, records)
		if err := SaveMaster(p.cfg.MasterPath(b), master); err != nil {
			return err
		}
	}
	return nil
}

// stageMonthly recomputes the monthly KPI table wholesale from the master
// set. KPI formulas are non-additive, so there is no incremental path here.
func (p *Pipeline) stageMonthly(sum *RunSummary, opts RunOptions, master []CanonicalRecord) ([]KPIRow, error) {
	stage := StageMonthly
	if !opts.enabled(stage) || p.reuse(stage, opts) {
		rows, _, err := LoadLatest[kpiParquetRow](p.store, stage)
		if err == nil {
			sum.SkippedStages = append(sum.SkippedStages, stage)
			kpis := make([]KPIRow, 0, len(rows))
			for _, row := range rows {
				k, err := decodeKPI(row)
				if err != nil {
					return nil, err
				}
				kpis = append(kpis, k)
			}
			sum.Months = len(kpis)
			return kpis, nil
		}
		if !opts.enabled(stage) {
			return nil, err
		}
	}

	kpis := AggregateAll(master, p.cal)
	sum.Months = len(kpis)
	rows := make([]kpiParquetRow, len(kpis))
	for i, k := range kpis {
		rows[i] = encodeKPI(k)
	}
	err := p.checkpoint(stage, opts, func() (string, error) {
		return SaveCheckpoint(p.store, stage, rows)
	})
	return kpis, err
}

// stageAxis generates the synthetic future months from the last observed
// month to the configured horizon.
func (p *Pipeline) stageAxis(sum *RunSummary, opts RunOptions, master []CanonicalRecord) ([]date.Month, error) {
	stage := StagePlotBase
	if !opts.enabled(stage) {
		rows, _, err := LoadLatest[kpiParquetRow](p.store, stage)
		if errors.Is(err, ErrCheckpointNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		sum.SkippedStages = append(sum.SkippedStages, stage)
		axis := make([]date.Month, len(rows))
		for i, row := range rows {
			if axis[i], err = date.ParseMonth(row.Month); err != nil {
				return nil, err
			}
		}
		return axis, nil
	}

	horizon := p.cfg.HorizonMonth()
	var axis []date.Month
	if !horizon.IsZero() {
		axis = FutureAxis(LastMonth(master), horizon)
	}

	rows := make([]kpiParquetRow, len(axis))
	for i, m := range axis {
		rows[i] = encodeKPI(KPIRow{Month: m})
	}
	err := p.checkpoint(stage, opts, func() (string, error) {
		return SaveCheckpoint(p.store, stage, rows)
	})
	return axis, err
}

// stagePlot assembles the continuous plot table and persists it as the run's
// final artifact.
func (p *Pipeline) stagePlot(sum *RunSummary, opts RunOptions, kpis []KPIRow, axis []date.Month) error {
	stage := StagePlotDF
	if !opts.enabled(stage) {
		rows, _, err := LoadLatest[plotParquetRow](p.store, stage)
		if errors.Is(err, ErrCheckpointNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		sum.SkippedStages = append(sum.SkippedStages, stage)
		sum.PlotRows = len(rows)
		return nil
	}

	plot := AssemblePlot(kpis, axis)
	sum.PlotRows = len(plot)
	rows := make([]plotParquetRow, len(plot))
	for i, r := range plot {
		rows[i] = encodePlot(r)
	}
	return p.checkpoint(stage, opts, func() (string, error) {
		return SaveCheckpoint(p.store, stage, rows)
	})
}
