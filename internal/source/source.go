// Package source provides the blocking frame sources the ingestion loop
// reads from: the sensor character device and an MQTT topic carrying raw
// frame payloads.
package source

import "errors"

// ErrClosed is returned by Next after Close. The ingestion loop treats it as
// a quiet exit signal rather than a read fault.
var ErrClosed = errors.New("frame source closed")

// FrameSource yields successive raw sensor frames. Next blocks until a frame
// is available; Close unblocks a pending Next.
type FrameSource interface {
	Next() ([]byte, error)
	Close() error
}
