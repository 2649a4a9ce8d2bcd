package c565

import (
	"fmt"
	"math"
)

// Geometry is the chunk grid derived from a header. It is never stored.
//
// Count and Rows come from the pixel dimensions. Columns is the value stored
// in the header, which is what positions are derived from; for a well-formed
// file it equals ImageWidth/ChunkWidth.
type Geometry struct {
	Columns uint64
	Rows    uint64
	Count   uint64
}

// Geometry derives the chunk grid from h. A zero chunk area yields an
// empty grid.
func (h Header) Geometry() Geometry {
	g := Geometry{Columns: uint64(h.ChunkColumns)}
	area := uint64(h.ChunkWidth) * uint64(h.ChunkHeight)
	if area == 0 {
		return g
	}
	g.Count = uint64(h.ImageWidth) * uint64(h.ImageHeight) / area
	if g.Columns != 0 {
		g.Rows = g.Count / g.Columns
	}
	return g
}

// ExpectedColumns returns ImageWidth/ChunkWidth, or 0 for a zero chunk width.
func (h Header) ExpectedColumns() uint64 {
	if h.ChunkWidth == 0 {
		return 0
	}
	return uint64(h.ImageWidth / h.ChunkWidth)
}

// Consistent reports whether the header satisfies the bake-time invariants:
// chunk dimensions evenly divide the image and the stored column count
// matches. Readers do not require this.
func (h Header) Consistent() bool {
	if h.ChunkWidth == 0 || h.ChunkHeight == 0 {
		return false
	}
	if h.ImageWidth%h.ChunkWidth != 0 || h.ImageHeight%h.ChunkHeight != 0 {
		return false
	}
	return uint64(h.ChunkColumns) == h.ExpectedColumns()
}

// Position converts a linear chunk index into grid coordinates.
func (g Geometry) Position(index uint64) (x, y uint64, err error) {
	if g.Columns == 0 {
		return 0, 0, fmt.Errorf("%w: zero chunk columns", ErrDimensionMismatch)
	}
	return index % g.Columns, index / g.Columns, nil
}

// Index converts grid coordinates into a linear chunk index.
func (g Geometry) Index(x, y uint64) (uint64, error) {
	if g.Columns == 0 {
		return 0, fmt.Errorf("%w: zero chunk columns", ErrDimensionMismatch)
	}
	if x >= g.Columns {
		return 0, fmt.Errorf("%w: column %d, columns %d", ErrOutOfRange, x, g.Columns)
	}
	if y > (math.MaxUint64-x)/g.Columns {
		return 0, fmt.Errorf("%w: row %d", ErrOutOfRange, y)
	}
	idx := y*g.Columns + x
	if idx >= g.Count {
		return 0, fmt.Errorf("%w: index %d, chunk count %d", ErrOutOfRange, idx, g.Count)
	}
	return idx, nil
}

// PayloadSize returns Count*ChunkSize, the number of data bytes a baked
// file carries after the header.
func (h Header) PayloadSize() (uint64, error) {
	g := h.Geometry()
	if h.ChunkSize != 0 && g.Count > math.MaxUint64/h.ChunkSize {
		return 0, fmt.Errorf("%w: %d chunks of %d bytes", ErrFieldOverflow, g.Count, h.ChunkSize)
	}
	return g.Count * h.ChunkSize, nil
}

// chunkRange returns the file offset and length of chunk index.
func (h Header) chunkRange(index uint64) (int64, int, error) {
	if h.ChunkSize > uint64(math.MaxInt) {
		return 0, 0, fmt.Errorf("%w: chunk size %d", ErrFieldOverflow, h.ChunkSize)
	}
	if h.ChunkSize != 0 && index > (math.MaxInt64-HeaderSize)/h.ChunkSize-1 {
		return 0, 0, fmt.Errorf("%w: index %d overflows file offset", ErrOutOfRange, index)
	}
	off := HeaderSize + index*h.ChunkSize
	return int64(off), int(h.ChunkSize), nil
}

// ChunkOffset returns the file offset of chunk index.
func (h Header) ChunkOffset(index uint64) (int64, error) {
	off, _, err := h.chunkRange(index)
	return off, err
}
