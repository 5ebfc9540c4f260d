package dashboard

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
	"go.uber.org/zap"

	"github.com/Chiquitos-JP/trading-dashboard/date"
)

// Stage names a checkpointed pipeline stage. The numeric prefix fixes the
// execution order and sorts artifact listings naturally.
type Stage string

const (
	StageRawImport Stage = "01_raw_import"
	StageMerged    Stage = "02_merged_with_mdays"
	StageMonthly   Stage = "03_ts_monthly"
	StagePlotBase  Stage = "04_plot_base"
	StagePlotDF    Stage = "05_plot_df"
)

// Stages lists all pipeline stages in execution order.
func Stages() []Stage {
	return []Stage{StageRawImport, StageMerged, StageMonthly, StagePlotBase, StagePlotDF}
}

// Store persists stage outputs as date-stamped parquet artifacts. It is a
// cache, not a source of truth: deleting every artifact and re-running must
// reproduce identical downstream output from the same raw inputs.
type Store struct {
	dir   string
	fresh func(date.Date) bool
	log   *zap.Logger
}

// NewStore opens a checkpoint store rooted at dir. fresh decides whether a
// stamped artifact is current; nil means "stamped today".
func NewStore(dir string, fresh func(date.Date) bool, log *zap.Logger) *Store {
	if fresh == nil {
		fresh = func(stamp date.Date) bool { return stamp.Equal(date.Today()) }
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{dir: dir, fresh: fresh, log: log}
}

// Fresh reports whether the latest artifact for a stage passes the freshness
// predicate. A stage with no artifact is never fresh.
func (s *Store) Fresh(stage Stage) bool {
	stamp, err := s.latestStamp(stage)
	if err != nil {
		return false
	}
	return s.fresh(stamp)
}

func (s *Store) path(stage Stage, stamp date.Date) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s.parquet", stage, stamp.Stamp()))
}

// latestStamp finds the newest date stamp among a stage's artifacts.
func (s *Store) latestStamp(stage Stage) (date.Date, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return date.Date{}, fmt.Errorf("stage %s: %w", stage, ErrCheckpointNotFound)
	}
	prefix := string(stage) + "_"
	var latest date.Date
	found := false
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".parquet") {
			continue
		}
		stamp, err := date.ParseStamp(strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".parquet"))
		if err != nil {
			continue
		}
		if !found || latest.Before(stamp) {
			latest = stamp
			found = true
		}
	}
	if !found {
		return date.Date{}, fmt.Errorf("stage %s: %w", stage, ErrCheckpointNotFound)
	}
	return latest, nil
}

// SaveCheckpoint writes a stage's rows stamped with today's date, superseding
// any artifact of the same stage and stamp.
func SaveCheckpoint[T any](s *Store, stage Stage, rows []T) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("checkpoint %s: %w", stage, err)
	}
	path := s.path(stage, date.Today())
	if err := parquet.WriteFile(path, rows); err != nil {
		return "", fmt.Errorf("checkpoint %s: %w", stage, err)
	}
	s.log.Debug("checkpoint saved", zap.String("stage", string(stage)), zap.String("path", path))
	return path, nil
}

// LoadLatest reads the most recently stamped artifact for a stage. A missing
// or unreadable artifact is ErrCheckpointNotFound either way: the stage
// recomputes rather than aborting on a corrupt cache.
func LoadLatest[T any](s *Store, stage Stage) ([]T, date.Date, error) {
	stamp, err := s.latestStamp(stage)
	if err != nil {
		return nil, date.Date{}, err
	}
	path := s.path(stage, stamp)
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		s.log.Warn("checkpoint unreadable, recomputing",
			zap.String("stage", string(stage)),
			zap.String("path", path),
			zap.Error(err))
		return nil, date.Date{}, fmt.Errorf("stage %s corrupt at %s: %w", stage, path, ErrCheckpointNotFound)
	}
	return rows, stamp, nil
}
