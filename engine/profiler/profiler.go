package profiler

import (
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Profiler tracks frame times, frame rate and memory statistics.
// Stats are written to the logger once per update interval.
type Profiler struct {
	mu             *sync.Mutex
	logger         *zap.Logger
	now            func() time.Time
	frameCount     int
	lastTime       time.Time
	lastFrame      time.Time
	frameTime      time.Duration
	windowTime     time.Duration
	updateInterval time.Duration
	reporting      bool
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// ProfilerOption is a functional option for configuring a Profiler.
type ProfilerOption func(*Profiler)

// WithLogger sets the logger stats are written to. A nil logger is ignored.
func WithLogger(logger *zap.Logger) ProfilerOption {
	return func(p *Profiler) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithUpdateInterval sets how often stats are logged.
//
// Parameters:
//   - interval: logging interval, ignored if <= 0
//
// Returns:
//   - ProfilerOption: option function to apply
func WithUpdateInterval(interval time.Duration) ProfilerOption {
	return func(p *Profiler) {
		if interval > 0 {
			p.updateInterval = interval
		}
	}
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerOption) *Profiler {
	p := &Profiler{
		mu:             &sync.Mutex{},
		logger:         zap.NewNop(),
		now:            time.Now,
		updateInterval: time.Second,
		reporting:      true,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	p.lastFrame = p.lastTime
	return p
}

// Tick should be called once per rendered frame.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, average frame time, heap usage, allocation rate, GC count and pause times.
//
// Returns:
//   - float64: duration of the frame that just ended in milliseconds
func (p *Profiler) Tick() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	currentTime := p.now()
	p.frameTime = currentTime.Sub(p.lastFrame)
	p.lastFrame = currentTime
	p.windowTime += p.frameTime
	p.frameCount++

	elapsed := currentTime.Sub(p.lastTime)
	if elapsed >= p.updateInterval {
		if p.reporting {
			p.report(elapsed)
		}
		p.frameCount = 0
		p.windowTime = 0
		p.lastTime = currentTime
	}

	return durationMs(p.frameTime)
}

// FrameTimeMs returns the duration of the most recent frame in milliseconds.
func (p *Profiler) FrameTimeMs() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return durationMs(p.frameTime)
}

// SetReporting turns the periodic stats log on or off. Frame times are tracked either way.
func (p *Profiler) SetReporting(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reporting = enabled
}

// report logs one stats line. Must be called with mu held.
func (p *Profiler) report(elapsed time.Duration) {
	fps := float64(p.frameCount) / elapsed.Seconds()
	avgMs := durationMs(p.windowTime) / float64(p.frameCount)

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 GC pauses
	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			if pause := p.memStats.PauseNs[i%256] / 1000; pause > maxPauseUs {
				maxPauseUs = pause
			}
		}
	}

	p.logger.Info("frame stats",
		zap.Float64("fps", fps),
		zap.Float64("frame_time_ms", avgMs),
		zap.Float64("heap_mb", allocMB),
		zap.Float64("alloc_rate_mb_s", allocRateMB),
		zap.Uint32("gc", gcCount),
		zap.Uint64("gc_last_pause_us", lastPauseUs),
		zap.Uint64("gc_max_pause_us", maxPauseUs),
		zap.Float64("sys_mb", sysMB),
	)

	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
}

func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
