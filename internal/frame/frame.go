// Package frame decodes the fixed 16-byte binary records emitted by the
// sensor character device.
package frame

import (
	"encoding/binary"
	"errors"
	"math"
)

// Size is the wire size of one frame.
const Size = 16

var ErrFrameTooShort = errors.New("frame too short")

// Frame is one decoded sensor reading.
type Frame struct {
	Time   uint64
	TypeID uint32
	Value  float32
}

// Decode parses one frame: bytes [0,8) are the little-endian unix timestamp,
// bytes [8,12) the little-endian type id, and the last 4 bytes the
// measurement as a native-order IEEE-754 single. Any bytes in between are
// padding and ignored. Decode never fails on input of at least Size bytes.
func Decode(buf []byte) (Frame, error) {
	if len(buf) < Size {
		return Frame{}, ErrFrameTooShort
	}
	return Frame{
		Time:   binary.LittleEndian.Uint64(buf[0:8]),
		TypeID: binary.LittleEndian.Uint32(buf[8:12]),
		Value:  math.Float32frombits(binary.NativeEndian.Uint32(buf[len(buf)-4:])),
	}, nil
}
