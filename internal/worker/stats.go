package worker

import (
	"sync/atomic"
	"time"
)

// Stats holds process-wide counters for the remux pipeline. Initialized at
// boot, reset only by restart. Increments are atomic since group members run
// on parallel goroutines.
type Stats struct {
	processed  int64
	skipped    int64
	failed     int64
	bytesSaved int64
	startTime  time.Time
}

type StatsSnapshot struct {
	Processed  int64
	Skipped    int64
	Failed     int64
	BytesSaved int64
	Uptime     time.Duration
}

func NewStats() *Stats {
	return &Stats{startTime: time.Now()}
}

func (s *Stats) AddProcessed(savedBytes int64) {
	atomic.AddInt64(&s.processed, 1)
	atomic.AddInt64(&s.bytesSaved, savedBytes)
}

func (s *Stats) AddSkipped() {
	atomic.AddInt64(&s.skipped, 1)
}

func (s *Stats) AddFailed() {
	atomic.AddInt64(&s.failed, 1)
}

func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Processed:  atomic.LoadInt64(&s.processed),
		Skipped:    atomic.LoadInt64(&s.skipped),
		Failed:     atomic.LoadInt64(&s.failed),
		BytesSaved: atomic.LoadInt64(&s.bytesSaved),
		Uptime:     time.Since(s.startTime),
	}
}

// Fields flattens a snapshot for the redis stats hash.
func (s *Stats) Fields() map[string]interface{} {
	snap := s.Snapshot()
	return map[string]interface{}{
		"processed":   snap.Processed,
		"skipped":     snap.Skipped,
		"failed":      snap.Failed,
		"bytes_saved": snap.BytesSaved,
		"uptime_sec":  int64(snap.Uptime.Seconds()),
	}
}
