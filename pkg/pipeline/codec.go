package pipeline

import (
	"encoding/binary"
	"math"

	errs "github.com/matzehuels/chaosgame/pkg/errors"
	"github.com/matzehuels/chaosgame/pkg/ifs"
)

// pointsMagic prefixes stored point sequences ("CGP" + version 1).
var pointsMagic = [4]byte{'C', 'G', 'P', 1}

// EncodePoints serializes points as little-endian float64 pairs. Unlike
// JSON it round-trips ±Inf and NaN from divergent sets bit for bit.
func EncodePoints(points ifs.PointSequence) []byte {
	buf := make([]byte, 12+16*len(points))
	copy(buf, pointsMagic[:])
	binary.LittleEndian.PutUint64(buf[4:], uint64(len(points)))
	off := 12
	for _, p := range points {
		binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(p.X))
		binary.LittleEndian.PutUint64(buf[off+8:], math.Float64bits(p.Y))
		off += 16
	}
	return buf
}

// DecodePoints parses the output of [EncodePoints].
func DecodePoints(data []byte) (ifs.PointSequence, error) {
	if len(data) < 12 || [4]byte(data[:4]) != pointsMagic {
		return nil, errs.New(errs.ErrCodeInvalidFormat, "not a stored point sequence")
	}
	n := binary.LittleEndian.Uint64(data[4:12])
	body := len(data) - 12
	if body%16 != 0 || n != uint64(body/16) {
		return nil, errs.New(errs.ErrCodeInvalidFormat, "stored point sequence truncated: %d points, %d bytes", n, len(data))
	}
	points := make(ifs.PointSequence, n)
	off := 12
	for i := range points {
		points[i].X = math.Float64frombits(binary.LittleEndian.Uint64(data[off:]))
		points[i].Y = math.Float64frombits(binary.LittleEndian.Uint64(data[off+8:]))
		off += 16
	}
	return points, nil
}
