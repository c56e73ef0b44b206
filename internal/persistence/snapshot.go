// internal/persistence/snapshot.go

package persistence

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"querykv/internal/store"
)

// SnapshotManager schedules background snapshots of the whole store. The
// snapshot loop is the only thing in the system that writes to disk.
type SnapshotManager struct {
	Store    *store.Store
	DataDir  string
	Interval time.Duration
	Quit     chan struct{}
	Enabled  bool
}

// NewSnapshotManager creates and returns a new instance of SnapshotManager.
func NewSnapshotManager(s *store.Store, dataDir string, interval time.Duration, enabled bool) *SnapshotManager {
	return &SnapshotManager{
		Store:    s,
		DataDir:  dataDir,
		Interval: interval,
		Quit:     make(chan struct{}),
		Enabled:  enabled,
	}
}

// Start runs the scheduled snapshot loop. It blocks until Stop, so run it on
// its own goroutine. A failed pass is logged and the schedule keeps ticking.
func (sm *SnapshotManager) Start() {
	if !sm.Enabled || sm.Interval <= 0 {
		slog.Info("Scheduled snapshots are disabled.")
		return
	}

	slog.Info("Scheduled snapshots enabled", "interval", sm.Interval, "dir", sm.DataDir)
	ticker := time.NewTicker(sm.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := sm.CreateSnapshot(); err != nil {
				slog.Error("Scheduled snapshot failed", "error", err)
			}
		case <-sm.Quit:
			slog.Info("Snapshot manager stopping.")
			return
		}
	}
}

// Stop signals the snapshot loop to exit. Nothing is flushed on the way out;
// the last completed pass is what survives a shutdown.
func (sm *SnapshotManager) Stop() {
	if sm.Enabled {
		close(sm.Quit)
	}
}

// CreateSnapshot writes every collection to the data directory in one pass.
// The first failed file aborts the pass; files already renamed into place
// stay, and every untouched file keeps its previous complete version.
func (sm *SnapshotManager) CreateSnapshot() error {
	passID := uuid.NewString()
	started := time.Now()
	image := sm.Store.Snapshot()

	for name, payload := range image {
		if err := SaveCollection(sm.DataDir, name, payload); err != nil {
			return fmt.Errorf("snapshot pass %s aborted: %w", passID, err)
		}
	}

	slog.Info("Snapshot pass complete",
		"pass", passID,
		"collections", len(image),
		"took", time.Since(started).Round(time.Millisecond))
	return nil
}
