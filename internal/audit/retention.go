package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// PruneOlderThan rewrites every security_events*.log file under the log
// directory, dropping entries older than retention. It returns the number
// of entries removed.
func (r *Recorder) PruneOlderThan(ctx context.Context, retention time.Duration) (int, error) {
	if retention <= 0 {
		return 0, fmt.Errorf("audit: retention must be positive")
	}
	cutoff := r.now().Add(-retention)

	r.mu.Lock()
	defer r.mu.Unlock()

	matches, err := filepath.Glob(filepath.Join(r.dir, "security_events*.log"))
	if err != nil {
		return 0, fmt.Errorf("audit: glob: %w", err)
	}

	removed := 0
	for _, path := range matches {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		n, err := pruneFile(path, cutoff)
		if err != nil {
			r.logger.Warn("audit prune failed", slog.String("file", path), slog.Any("error", err))
			continue
		}
		removed += n
	}
	return removed, nil
}

func pruneFile(path string, cutoff time.Time) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}

	var kept [][]byte
	removed := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := append([]byte(nil), scanner.Bytes()...)
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			// Keep unparseable lines; pruning is not the place to lose data.
			kept = append(kept, line)
			continue
		}
		if event.Timestamp.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, line)
	}
	scanErr := scanner.Err()
	if err := f.Close(); err != nil {
		return 0, err
	}
	if scanErr != nil {
		return 0, scanErr
	}
	if removed == 0 {
		return 0, nil
	}

	tmp := path + ".tmp"
	out, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}
	for _, line := range kept {
		if _, err := out.Write(append(line, '\n')); err != nil {
			out.Close()
			os.Remove(tmp)
			return 0, err
		}
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return 0, err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return 0, err
	}
	return removed, nil
}
