package dataset

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/loomwork/loomwork/internal/fsguard"
	"github.com/loomwork/loomwork/internal/logx"
)

// DedupInterval is the housekeeping cadence (spec.md §4.5: "a periodic
// housekeeping task (hourly)").
const DedupInterval = time.Hour

// Dedup rewrites the dataset file in place, removing exact-duplicate
// lines (byte-identical after trimming surrounding whitespace) while
// preserving the order of first occurrence. Returns the number of
// lines removed.
func (r *Recorder) Dedup() (removed int, err error) {
	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return 0, fmt.Errorf("ensuring dataset dir: %w", err)
	}

	seen := make(map[string]bool)
	var kept bytes.Buffer

	rewriteErr := fsguard.RewriteLocked(r.path, func(f *os.File) ([]byte, error) {
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if seen[line] {
				removed++
				continue
			}
			seen[line] = true
			kept.WriteString(line)
			kept.WriteByte('\n')
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("scanning dataset for dedup: %w", err)
		}
		return kept.Bytes(), nil
	})
	if rewriteErr != nil {
		return 0, rewriteErr
	}
	return removed, nil
}

// RunHousekeeping blocks, running Dedup on DedupInterval ticks until
// ctx is cancelled. Owned by the Engine context rather than a global
// singleton (SPEC_FULL.md §9 design note).
func (r *Recorder) RunHousekeeping(ctx context.Context, log *logx.Logger) {
	ticker := time.NewTicker(DedupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := r.Dedup()
			if err != nil {
				log.Warning("dataset dedup failed: %v", err)
				continue
			}
			if removed > 0 {
				log.Info("dataset dedup removed %d duplicate record(s)", removed)
			}
		}
	}
}
