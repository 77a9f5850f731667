// Package reader runs the background ingestion loop that turns raw sensor
// frames into stored measurement values.
package reader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"telemetryd/internal/frame"
	"telemetryd/internal/metrics"
	"telemetryd/internal/source"
	"telemetryd/internal/store"
)

type State int

const (
	StateStopped State = iota
	StateRunning
	StateStopping
)

var (
	ErrAlreadyRunning = errors.New("reader already running")
	ErrNotRunning     = errors.New("reader not running")
)

const defaultInterval = 100 * time.Millisecond

// Reader owns the ingestion loop. Start seeds the store, then launches one
// goroutine that reads, decodes and persists frames until Stop is called or
// the source is exhausted.
type Reader struct {
	repo     *store.Repo
	src      source.FrameSource
	interval time.Duration

	mu    sync.Mutex
	state State
	stop  chan struct{}
	done  chan struct{}
}

func New(repo *store.Repo, src source.FrameSource, interval time.Duration) *Reader {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Reader{repo: repo, src: src, interval: interval}
}

func (r *Reader) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Start seeds the bootstrap locations and devices synchronously, then
// launches the polling goroutine and returns.
func (r *Reader) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateStopped {
		return ErrAlreadyRunning
	}
	if err := Seed(ctx, r.repo); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	r.state = StateRunning
	go r.run()
	return nil
}

// Stop signals the loop, unblocks a pending frame read by closing the
// source, and joins the goroutine before returning.
func (r *Reader) Stop() error {
	r.mu.Lock()
	if r.state != StateRunning {
		r.mu.Unlock()
		return ErrNotRunning
	}
	r.state = StateStopping
	close(r.stop)
	_ = r.src.Close()
	done := r.done
	r.mu.Unlock()

	<-done

	r.mu.Lock()
	r.state = StateStopped
	r.mu.Unlock()
	return nil
}

func (r *Reader) stopping() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == StateStopping
}

func (r *Reader) run() {
	defer func() {
		r.mu.Lock()
		if r.state == StateRunning {
			r.state = StateStopped
		}
		r.mu.Unlock()
		close(r.done)
	}()

	ctx := context.Background()
	count := 0
	for {
		select {
		case <-r.stop:
			return
		default:
		}

		buf, err := r.src.Next()
		if err != nil {
			if errors.Is(err, source.ErrClosed) || r.stopping() {
				return
			}
			slog.Error("frame read failed", "error", err)
			return
		}
		metrics.FramesRead.Inc()

		f, err := frame.Decode(buf)
		if err != nil {
			slog.Error("frame decode failed", "error", err)
			return
		}

		devices, err := r.repo.GetDevices(ctx)
		if err != nil {
			slog.Error("device listing failed", "error", err)
			return
		}
		if len(devices) == 0 {
			slog.Error("no devices available for ingest")
			return
		}
		device := devices[rand.Intn(len(devices))]

		err = r.repo.AddValue(ctx, int64(f.Time), int(f.TypeID), float64(f.Value), device.ID)
		if errors.Is(err, store.ErrIntegrityViolation) {
			slog.Info("all values read")
			metrics.IntegrityStops.Inc()
			return
		}
		if err != nil {
			slog.Error("store value failed", "error", err)
			return
		}
		metrics.ValuesStored.Inc()
		slog.Debug("value stored", "time", f.Time, "type_id", f.TypeID, "value", f.Value, "device_id", device.ID)

		count++
		if count%100 == 0 {
			slog.Info("read 100 values", "count", count)
			metrics.ReadMilestones.Inc()
		}

		select {
		case <-r.stop:
			return
		case <-time.After(r.interval):
		}
	}
}
