// FILE: lixenwraith/logsetup/heartbeat.go
package logsetup

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/mem"
)

// Heartbeat detail levels
const (
	HeartbeatOff  int64 = 0
	HeartbeatProc int64 = 1 // dispatcher counters
	HeartbeatSink int64 = 2 // plus one record per sink
	HeartbeatSys  int64 = 3 // plus runtime and host memory
)

// Heartbeat periodically logs dispatcher, sink and runtime statistics as
// INFO records of the "heartbeat" logger
type Heartbeat struct {
	logger   *Logger
	d        *Dispatcher
	detail   int64
	interval time.Duration
	start    time.Time

	sequence    atomic.Uint64
	lastDropped atomic.Uint64

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHeartbeat creates a stopped heartbeat for d
func (d *Dispatcher) NewHeartbeat(detail int64, interval time.Duration) (*Heartbeat, error) {
	if detail < HeartbeatProc || detail > HeartbeatSys {
		return nil, invalidArgf("heartbeat detail must be between %d and %d, got %d", HeartbeatProc, HeartbeatSys, detail)
	}
	if interval <= 0 {
		return nil, invalidArgf("heartbeat interval must be positive, got %v", interval)
	}
	return &Heartbeat{
		logger:   d.Logger("heartbeat"),
		d:        d,
		detail:   detail,
		interval: interval,
		start:    time.Now(),
	}, nil
}

// Start runs the heartbeat in a goroutine named "heartbeat" under b's
// worker capture. Starting a running heartbeat is a no-op.
func (h *Heartbeat) Start(b *Bridge) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.done = make(chan struct{})
	done := h.done

	b.Go("heartbeat", func() {
		defer close(done)
		ticker := time.NewTicker(h.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.Beat()
			}
		}
	})
}

// Stop ends the heartbeat goroutine and waits for it
func (h *Heartbeat) Stop() {
	h.mu.Lock()
	cancel, done := h.cancel, h.done
	h.cancel, h.done = nil, nil
	h.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Beat logs one round of statistics
func (h *Heartbeat) Beat() {
	if h.d.IsShutdown() || !h.logger.Enabled(LevelInfo) {
		return
	}

	h.logProc()
	if h.detail >= HeartbeatSink {
		h.logSinks()
	}
	if h.detail >= HeartbeatSys {
		h.logSys()
	}
}

// logProc logs dispatcher statistics
func (h *Heartbeat) logProc() {
	stats := h.d.Stats()
	sequence := h.sequence.Add(1)

	args := []any{
		"type", "proc",
		"sequence", sequence,
		"uptime_hours", fmt.Sprintf("%.2f", time.Since(h.start).Hours()),
		"emitted", stats.Emitted,
		"dropped", stats.Dropped,
		"deliveries", stats.Deliveries,
		"failures", stats.Failures,
	}

	// Drops since the previous heartbeat
	if prev := h.lastDropped.Swap(stats.Dropped); stats.Dropped > prev {
		args = append(args, "dropped_since_last", stats.Dropped-prev)
	}

	h.logger.emit(LevelInfo, 1, keyValueLine(args), nil)
}

// logSinks logs one record per registered sink
func (h *Heartbeat) logSinks() {
	sequence := h.sequence.Load()
	for _, reg := range h.d.registrations() {
		args := []any{
			"type", "sink",
			"sequence", sequence,
			"name", reg.name,
			"level", LevelName(reg.level.Load()),
			"deliveries", reg.deliveries.Load(),
			"failures", reg.failures.Load(),
		}
		if r, ok := reg.sink.(interface{ Rotations() uint64 }); ok {
			args = append(args, "rotations", r.Rotations())
		}
		h.logger.emit(LevelInfo, 1, keyValueLine(args), nil)
	}
}

// logSys logs runtime and host memory statistics
func (h *Heartbeat) logSys() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	args := []any{
		"type", "sys",
		"sequence", h.sequence.Load(),
		"alloc_mb", fmt.Sprintf("%.2f", float64(memStats.Alloc)/(1000*1000)),
		"sys_mb", fmt.Sprintf("%.2f", float64(memStats.Sys)/(1000*1000)),
		"num_gc", memStats.NumGC,
		"num_goroutine", runtime.NumGoroutine(),
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		args = append(args, "host_mem_used_percent", fmt.Sprintf("%.1f", vm.UsedPercent))
	} else {
		h.d.internalLog("warning - heartbeat failed to read host memory: %v\n", err)
	}

	h.logger.emit(LevelInfo, 1, keyValueLine(args), nil)
}

// keyValueLine renders alternating keys and values as "k=v k=v"
func keyValueLine(args []any) string {
	var sb strings.Builder
	for i := 0; i+1 < len(args); i += 2 {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%v=%v", args[i], args[i+1])
	}
	return sb.String()
}
