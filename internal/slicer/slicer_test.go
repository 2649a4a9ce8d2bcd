package slicer

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/l3pu5/c565/pkg/c565"
)

// gradient returns a w x h image where each pixel is bpp copies of its
// linear pixel index mod 251.
func gradient(w, h, bpp int) []byte {
	out := make([]byte, 0, w*h*bpp)
	for i := 0; i < w*h; i++ {
		for b := 0; b < bpp; b++ {
			out = append(out, byte(i%251))
		}
	}
	return out
}

func TestSliceOrdersChunksRowMajor(t *testing.T) {
	t.Parallel()

	// 4x2 image, 2x1 chunks, 1 byte per pixel:
	//   0 1 2 3
	//   4 5 6 7
	l := Layout{ImageWidth: 4, ImageHeight: 2, ChunkWidth: 2, ChunkHeight: 1, BytesPerPixel: 1}
	got, err := Slice(l, []byte{0, 1, 2, 3, 4, 5, 6, 7})
	if err != nil {
		t.Fatalf("slice: %v", err)
	}
	want := []byte{0, 1, 2, 3, 4, 5, 6, 7}
	if !bytes.Equal(got, want) {
		t.Fatalf("slice: got %v want %v", got, want)
	}

	// 4x2 image, 2x2 chunks: each chunk is a 2x2 square.
	l.ChunkHeight = 2
	got, err = Slice(l, []byte{0, 1, 2, 3, 4, 5, 6, 7})
	if err != nil {
		t.Fatalf("slice: %v", err)
	}
	want = []byte{0, 1, 4, 5, 2, 3, 6, 7}
	if !bytes.Equal(got, want) {
		t.Fatalf("slice square chunks: got %v want %v", got, want)
	}
}

func TestSliceErrors(t *testing.T) {
	t.Parallel()

	l := Layout{ImageWidth: 60, ImageHeight: 24, ChunkWidth: 12, ChunkHeight: 12, BytesPerPixel: 2}
	if _, err := Slice(l, make([]byte, 10)); !errors.Is(err, ErrBufferSize) {
		t.Fatalf("short buffer: got %v want ErrBufferSize", err)
	}
	l.ChunkWidth = 13
	if _, err := Slice(l, make([]byte, 60*24*2)); !errors.Is(err, c565.ErrDimensionMismatch) {
		t.Fatalf("bad chunk width: got %v want ErrDimensionMismatch", err)
	}
	l.ChunkWidth = 12
	l.BytesPerPixel = 0
	if _, err := Slice(l, nil); err == nil {
		t.Fatalf("zero bytes per pixel accepted")
	}
}

func TestBakeAssembleRoundTrip(t *testing.T) {
	t.Parallel()

	cases := []Layout{
		{ImageWidth: 60, ImageHeight: 24, ChunkWidth: 12, ChunkHeight: 12, BytesPerPixel: c565.BytesPerPixel565},
		{ImageWidth: 60, ImageHeight: 24, ChunkWidth: 20, ChunkHeight: 8, BytesPerPixel: 3},
		{ImageWidth: 16, ImageHeight: 16, ChunkWidth: 16, ChunkHeight: 1, BytesPerPixel: 1},
	}
	for i, l := range cases {
		img := gradient(int(l.ImageWidth), int(l.ImageHeight), l.BytesPerPixel)
		path := filepath.Join(t.TempDir(), "img"+c565.Ext)

		h, err := Bake(l, img, path)
		if err != nil {
			t.Fatalf("case %d: bake: %v", i, err)
		}
		if h.ChunkSize != l.ChunkSize() {
			t.Fatalf("case %d: chunk size: got %d want %d", i, h.ChunkSize, l.ChunkSize())
		}

		s, err := c565.Open(path)
		if err != nil {
			t.Fatalf("case %d: open: %v", i, err)
		}
		gotLayout, got, err := Assemble(s)
		_ = s.Close()
		if err != nil {
			t.Fatalf("case %d: assemble: %v", i, err)
		}
		if gotLayout != l {
			t.Fatalf("case %d: layout: got %+v want %+v", i, gotLayout, l)
		}
		if !bytes.Equal(got, img) {
			t.Fatalf("case %d: reassembled image differs", i)
		}
	}
}

func TestLayoutFromHeader(t *testing.T) {
	t.Parallel()

	l, err := LayoutFromHeader(c565.NewHeader(60, 24, 12, 12, 5, 288))
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	if l.BytesPerPixel != 2 {
		t.Fatalf("bytes per pixel: got %d want 2", l.BytesPerPixel)
	}

	// 48 bytes cannot hold 144 whole pixels.
	if _, err := LayoutFromHeader(c565.NewHeader(60, 24, 12, 12, 5, 48)); !errors.Is(err, c565.ErrDimensionMismatch) {
		t.Fatalf("fractional pixel width: got %v want ErrDimensionMismatch", err)
	}
}
