package source

import (
	"io"
	"os"
	"sync"

	"telemetryd/internal/frame"
)

// Device reads frames from a sensor character device (e.g. /dev/rdp_cdev).
// The device is opened per read; each open yields one frame.
type Device struct {
	path string

	mu     sync.Mutex
	closed bool
}

func NewDevice(path string) *Device {
	return &Device{path: path}
}

func (d *Device) Next() ([]byte, error) {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	f, err := os.Open(d.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, frame.Size)
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (d *Device) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}
