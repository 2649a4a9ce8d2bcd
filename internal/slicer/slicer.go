// Package slicer converts between plain row-major pixel buffers and the
// chunk-major payload stored in c565 files. Pixels are opaque fixed-width
// byte groups.
package slicer

import (
	"errors"
	"fmt"
	"math"

	"github.com/l3pu5/c565/pkg/c565"
)

var ErrBufferSize = errors.New("slicer: buffer size does not match image dimensions")

// Layout describes an image and the chunk grid it is cut into.
type Layout struct {
	ImageWidth    uint32
	ImageHeight   uint32
	ChunkWidth    uint32
	ChunkHeight   uint32
	BytesPerPixel int
}

// LayoutFromHeader recovers the layout of a baked file. The pixel width is
// ChunkSize divided by the chunk area and must be whole.
func LayoutFromHeader(h c565.Header) (Layout, error) {
	area := uint64(h.ChunkWidth) * uint64(h.ChunkHeight)
	if area == 0 {
		return Layout{}, fmt.Errorf("%w: zero chunk area", c565.ErrDimensionMismatch)
	}
	if h.ChunkSize%area != 0 || h.ChunkSize == 0 {
		return Layout{}, fmt.Errorf("%w: chunk size %d is not a whole number of pixels for %dx%d chunks",
			c565.ErrDimensionMismatch, h.ChunkSize, h.ChunkWidth, h.ChunkHeight)
	}
	bpp := h.ChunkSize / area
	if bpp > math.MaxInt32 {
		return Layout{}, fmt.Errorf("%w: %d bytes per pixel", c565.ErrFieldOverflow, bpp)
	}
	l := Layout{
		ImageWidth:    h.ImageWidth,
		ImageHeight:   h.ImageHeight,
		ChunkWidth:    h.ChunkWidth,
		ChunkHeight:   h.ChunkHeight,
		BytesPerPixel: int(bpp),
	}
	return l, l.Validate()
}

// Validate checks that the chunk grid evenly covers the image.
func (l Layout) Validate() error {
	if l.BytesPerPixel <= 0 {
		return fmt.Errorf("slicer: invalid bytes per pixel %d", l.BytesPerPixel)
	}
	if l.ChunkWidth == 0 || l.ChunkHeight == 0 ||
		l.ImageWidth%l.ChunkWidth != 0 || l.ImageHeight%l.ChunkHeight != 0 {
		return fmt.Errorf("%w: %dx%d chunks against %dx%d image", c565.ErrDimensionMismatch,
			l.ChunkWidth, l.ChunkHeight, l.ImageWidth, l.ImageHeight)
	}
	if _, err := l.ImageSize(); err != nil {
		return err
	}
	return nil
}

// ChunkSize is the byte size of one chunk.
func (l Layout) ChunkSize() uint64 {
	return uint64(l.BytesPerPixel) * uint64(l.ChunkWidth) * uint64(l.ChunkHeight)
}

// ImageSize is the byte size of the whole image.
func (l Layout) ImageSize() (int, error) {
	px := uint64(l.ImageWidth) * uint64(l.ImageHeight)
	bpp := uint64(l.BytesPerPixel)
	if bpp != 0 && px > uint64(math.MaxInt)/bpp {
		return 0, fmt.Errorf("%w: image of %d pixels", c565.ErrFieldOverflow, px)
	}
	return int(px * bpp), nil
}

func (l Layout) columns() int { return int(l.ImageWidth / l.ChunkWidth) }
func (l Layout) rows() int    { return int(l.ImageHeight / l.ChunkHeight) }

// Slice reorders a row-major image into chunk-major order: chunks left to
// right then top to bottom, each chunk's rows top to bottom.
func Slice(l Layout, img []byte) ([]byte, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	size, _ := l.ImageSize()
	if len(img) != size {
		return nil, fmt.Errorf("%w: have %d bytes, want %d", ErrBufferSize, len(img), size)
	}

	out := make([]byte, 0, size)
	stride := int(l.ImageWidth) * l.BytesPerPixel
	rowBytes := int(l.ChunkWidth) * l.BytesPerPixel
	for cy := 0; cy < l.rows(); cy++ {
		for cx := 0; cx < l.columns(); cx++ {
			for r := 0; r < int(l.ChunkHeight); r++ {
				start := (cy*int(l.ChunkHeight)+r)*stride + cx*rowBytes
				out = append(out, img[start:start+rowBytes]...)
			}
		}
	}
	return out, nil
}

// Place copies one chunk's bytes into its position in a row-major image.
func Place(l Layout, img []byte, x, y uint64, data []byte) error {
	if uint64(len(data)) != l.ChunkSize() {
		return fmt.Errorf("%w: chunk has %d bytes, want %d", ErrBufferSize, len(data), l.ChunkSize())
	}
	if x >= uint64(l.columns()) || y >= uint64(l.rows()) {
		return fmt.Errorf("%w: chunk (%d,%d)", c565.ErrOutOfRange, x, y)
	}
	stride := int(l.ImageWidth) * l.BytesPerPixel
	rowBytes := int(l.ChunkWidth) * l.BytesPerPixel
	for r := 0; r < int(l.ChunkHeight); r++ {
		dst := (int(y)*int(l.ChunkHeight)+r)*stride + int(x)*rowBytes
		copy(img[dst:dst+rowBytes], data[r*rowBytes:(r+1)*rowBytes])
	}
	return nil
}

// Assemble reads every chunk of s and rebuilds the row-major image.
func Assemble(s *c565.Session) (Layout, []byte, error) {
	l, err := LayoutFromHeader(s.Header())
	if err != nil {
		return Layout{}, nil, err
	}
	size, _ := l.ImageSize()
	img := make([]byte, size)
	err = s.ForEachChunk(func(c c565.Chunk) error {
		return Place(l, img, c.X, c.Y, c.Data)
	})
	if err != nil {
		return Layout{}, nil, err
	}
	return l, img, nil
}

// Bake slices img and writes a complete c565 file at path.
func Bake(l Layout, img []byte, path string) (c565.Header, error) {
	payload, err := Slice(l, img)
	if err != nil {
		return c565.Header{}, err
	}
	b := c565.NewBaker()
	b.SetImageDimensions(l.ImageWidth, l.ImageHeight)
	if err := b.BakeChunkDimensions(l.ChunkWidth, l.ChunkHeight, l.ChunkSize()); err != nil {
		return c565.Header{}, err
	}
	if err := b.BakeFile(path, payload); err != nil {
		return c565.Header{}, err
	}
	return b.Header()
}
