package oto

import (
	"encoding/binary"
	"math"

	"github.com/gridvoice/gridvoice"
)

// putSamplesLE writes buf into p as interleaved little-endian float32 bytes.
// p must hold at least 8 bytes per frame.
func putSamplesLE(p []byte, buf gridvoice.AudioBuffer) {
	for i, frame := range buf {
		binary.LittleEndian.PutUint32(p[i*bytesPerFrame:], math.Float32bits(frame[0]))
		binary.LittleEndian.PutUint32(p[i*bytesPerFrame+4:], math.Float32bits(frame[1]))
	}
}
