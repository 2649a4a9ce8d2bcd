// Package fixture writes the reference test image used across the c565
// tooling: a 60x24 image cut into ten 12x12 chunks.
package fixture

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/l3pu5/c565/pkg/c565"
)

const (
	ImageWidth  = 60
	ImageHeight = 24
	ChunkWidth  = 12
	ChunkHeight = 12
	Columns     = ImageWidth / ChunkWidth
	Chunks      = (ImageWidth / ChunkWidth) * (ImageHeight / ChunkHeight)

	// ChunkSize is the value stored in the header. Each chunk block on disk
	// is Pixel repeated ChunkSize times, i.e. twice as long, so the file
	// carries more data than its header addresses.
	ChunkSize = 48

	Pixel uint16 = 0x0069
)

// Header returns the fixture header.
func Header() c565.Header {
	return c565.NewHeader(ImageWidth, ImageHeight, ChunkWidth, ChunkHeight, Columns, ChunkSize)
}

// Write emits the fixture. It bypasses c565.Baker on purpose: the payload
// does not match Count*ChunkSize and Baker would refuse it.
func Write(w io.Writer) error {
	var hdr [c565.HeaderSize]byte
	if err := c565.EncodeHeader(hdr[:], Header()); err != nil {
		return err
	}
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}

	var px [2]byte
	binary.BigEndian.PutUint16(px[:], Pixel)
	block := make([]byte, 0, 2*ChunkSize)
	for i := 0; i < ChunkSize; i++ {
		block = append(block, px[:]...)
	}
	for i := 0; i < Chunks; i++ {
		if _, err := w.Write(block); err != nil {
			return err
		}
	}
	return nil
}

// WriteFile writes the fixture to path.
func WriteFile(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	bw := bufio.NewWriter(f)
	if err := Write(bw); err != nil {
		return err
	}
	return bw.Flush()
}
