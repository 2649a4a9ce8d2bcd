package c565

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
)

// Baker fixes chunk geometry against an image size and writes c565 files.
//
// Usage is SetImageDimensions, then BakeChunkDimensions, then Encode or
// BakeFile. The payload passed to Encode must already be in chunk-major,
// row-major order; see internal/slicer for producing it from a plain
// row-major image buffer.
type Baker struct {
	imageW, imageH uint32
	chunkW, chunkH uint32
	columns        uint64
	rows           uint64
	chunkSize      uint64
	baked          bool
}

func NewBaker() *Baker {
	return &Baker{}
}

// SetImageDimensions records the target image size. Any previous bake is
// discarded.
func (b *Baker) SetImageDimensions(width, height uint32) {
	b.imageW = width
	b.imageH = height
	b.baked = false
}

// BakeChunkDimensions validates chunkW x chunkH against the image size and
// stores the grid. chunkSize is stored verbatim; it is conventionally
// BytesPerPixel565*chunkW*chunkH.
func (b *Baker) BakeChunkDimensions(chunkW, chunkH uint32, chunkSize uint64) error {
	if chunkW == 0 || chunkH == 0 {
		return fmt.Errorf("%w: zero chunk dimension %dx%d", ErrDimensionMismatch, chunkW, chunkH)
	}
	if b.imageW%chunkW != 0 {
		return fmt.Errorf("%w: chunk width %d against image width %d", ErrDimensionMismatch, chunkW, b.imageW)
	}
	if b.imageH%chunkH != 0 {
		return fmt.Errorf("%w: chunk height %d against image height %d", ErrDimensionMismatch, chunkH, b.imageH)
	}

	columns := uint64(b.imageW / chunkW)
	if columns > math.MaxUint16 {
		return fmt.Errorf("%w: %d chunk columns", ErrFieldOverflow, columns)
	}

	b.chunkW = chunkW
	b.chunkH = chunkH
	b.columns = columns
	b.rows = uint64(b.imageH / chunkH)
	b.chunkSize = chunkSize
	b.baked = true
	return nil
}

// Columns returns the baked chunk column count.
func (b *Baker) Columns() uint64 { return b.columns }

// Rows returns the baked chunk row count.
func (b *Baker) Rows() uint64 { return b.rows }

// Header returns the header a subsequent Encode would write.
func (b *Baker) Header() (Header, error) {
	if !b.baked {
		return Header{}, ErrNotBaked
	}
	return NewHeader(b.imageW, b.imageH, b.chunkW, b.chunkH, uint16(b.columns), b.chunkSize), nil
}

// Encode writes the header followed by payload. payload must hold exactly
// Count*ChunkSize bytes; nothing is written otherwise.
func (b *Baker) Encode(w io.Writer, payload []byte) (int64, error) {
	h, err := b.Header()
	if err != nil {
		return 0, err
	}
	want, err := h.PayloadSize()
	if err != nil {
		return 0, err
	}
	if uint64(len(payload)) != want {
		return 0, fmt.Errorf("%w: have %d bytes, want %d", ErrPayloadSize, len(payload), want)
	}

	var raw [HeaderSize]byte
	if err := EncodeHeader(raw[:], h); err != nil {
		return 0, err
	}
	n, err := w.Write(raw[:])
	written := int64(n)
	if err != nil {
		return written, err
	}
	n, err = w.Write(payload)
	written += int64(n)
	if err != nil {
		return written, err
	}
	if written != int64(HeaderSize+len(payload)) {
		return written, io.ErrShortWrite
	}
	return written, nil
}

// BakeFile writes a complete c565 file at path, replacing any existing file.
func (b *Baker) BakeFile(path string, payload []byte) (err error) {
	if !b.baked {
		return ErrNotBaked
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	bw := bufio.NewWriter(f)
	if _, err := b.Encode(bw, payload); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return f.Sync()
}
