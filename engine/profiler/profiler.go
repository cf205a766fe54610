package profiler

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-rings/common"
)

// Stats is one profiler report.
type Stats struct {
	FPS          float64
	Frames       int
	HeapMB       float64
	AllocRateMB  float64
	GCCount      uint32
	LastPauseUs  uint64
	MaxPauseUs   uint64
	SysMB        float64
	FrameErrors  int
	TotalFrames  uint64
	IntervalSecs float64
}

// Profiler tracks frame rate and memory statistics for performance monitoring.
// Reports through the common logger at a configurable interval.
type Profiler struct {
	frameCount     int
	errorCount     int
	totalFrames    uint64
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	now            func() time.Time
}

// NewProfiler creates a new Profiler reporting every interval. A non-positive interval defaults to 1 second.
//
// Parameters:
//   - interval: time between reports
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(interval time.Duration) *Profiler {
	if interval <= 0 {
		interval = time.Second
	}
	return &Profiler{
		lastTime:       time.Now(),
		updateInterval: interval,
		now:            time.Now,
	}
}

// Tick should be called once per frame to track frame timing, with the frame's error if any.
// Reports performance statistics when the update interval has elapsed.
// Statistics include: FPS, heap usage, allocation rate, GC count/pause times, total memory, failed frames.
//
// Parameters:
//   - frameErr: the error returned by the frame, nil on success
//
// Returns:
//   - Stats: the report, zero unless one was produced
//   - bool: true if stats were reported this tick, false otherwise
func (p *Profiler) Tick(frameErr error) (Stats, bool) {
	p.frameCount++
	p.totalFrames++
	if frameErr != nil {
		p.errorCount++
	}
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)

	if elapsed < p.updateInterval {
		return Stats{}, false
	}

	runtime.ReadMemStats(&p.memStats)
	// Alloc: Bytes of allocated heap objects (live memory)
	// TotalAlloc: Cumulative bytes allocated for heap objects (tracks churn)
	// Sys: Total bytes of memory obtained from the OS
	s := Stats{
		FPS:          float64(p.frameCount) / elapsed.Seconds(),
		Frames:       p.frameCount,
		HeapMB:       float64(p.memStats.Alloc) / 1024 / 1024,
		SysMB:        float64(p.memStats.Sys) / 1024 / 1024,
		AllocRateMB:  float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds(),
		GCCount:      p.memStats.NumGC,
		FrameErrors:  p.errorCount,
		TotalFrames:  p.totalFrames,
		IntervalSecs: elapsed.Seconds(),
	}

	gcCount := p.memStats.NumGC
	if gcCount > 0 {
		// PauseNs is a circular buffer of last 256 GC pauses
		s.LastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			s.MaxPauseUs = max(s.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	common.Logger().Info("[Profiler]",
		slog.Float64("fps", s.FPS),
		slog.Float64("heapMB", s.HeapMB),
		slog.Float64("allocRateMB", s.AllocRateMB),
		slog.Any("gc", s.GCCount),
		slog.Uint64("gcLastPauseUs", s.LastPauseUs),
		slog.Uint64("gcMaxPauseUs", s.MaxPauseUs),
		slog.Float64("sysMB", s.SysMB),
		slog.Int("frameErrors", s.FrameErrors),
	)

	p.frameCount = 0
	p.errorCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return s, true
}
