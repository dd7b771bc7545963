// Package vecfmt converts embeddings to and from the little-endian float32
// blob format used by sqlite-vec.
package vecfmt

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Blob serializes v as little-endian float32s.
func Blob(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// ParseBlob converts a little-endian byte slice back to a float32 slice.
func ParseBlob(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d: must be divisible by 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}
