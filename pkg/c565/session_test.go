package c565

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

// chunkedPayload fills chunk n with byte(n+1).
func chunkedPayload(count, size int) []byte {
	out := make([]byte, 0, count*size)
	for i := 0; i < count; i++ {
		out = append(out, bytes.Repeat([]byte{byte(i + 1)}, size)...)
	}
	return out
}

func encodeFile(t *testing.T, w, h, cw, ch uint32, chunkSize uint64) []byte {
	t.Helper()
	b := NewBaker()
	b.SetImageDimensions(w, h)
	if err := b.BakeChunkDimensions(cw, ch, chunkSize); err != nil {
		t.Fatalf("bake: %v", err)
	}
	hdr, err := b.Header()
	if err != nil {
		t.Fatalf("header: %v", err)
	}
	var buf bytes.Buffer
	if _, err := b.Encode(&buf, chunkedPayload(int(hdr.Geometry().Count), int(chunkSize))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func newTestSession(t *testing.T, raw []byte) *Session {
	t.Helper()
	s, err := NewSession(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s
}

func TestSessionOpenState(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, encodeFile(t, 60, 24, 12, 12, 288))
	if s.Index() != 0 || s.EOF() {
		t.Fatalf("initial cursor: index=%d eof=%v", s.Index(), s.EOF())
	}
	g := s.Geometry()
	if g.Count != 10 || g.Columns != 5 || g.Rows != 2 {
		t.Fatalf("geometry: got %+v", g)
	}
	if s.Header().ChunkSize != 288 {
		t.Fatalf("chunk size: got %d", s.Header().ChunkSize)
	}
}

func TestSessionSeekThenNext(t *testing.T) {
	t.Parallel()

	raw := encodeFile(t, 60, 24, 12, 12, 288)
	s := newTestSession(t, raw)
	for _, i := range []uint64{0, 3, 9, 1} {
		if err := s.SeekChunk(i); err != nil {
			t.Fatalf("seek %d: %v", i, err)
		}
		data, err := s.Next()
		if err != nil {
			t.Fatalf("next after seek %d: %v", i, err)
		}
		off := 32 + int(i)*288
		if !bytes.Equal(data, raw[off:off+288]) {
			t.Fatalf("chunk %d: bytes do not match file offset %d", i, off)
		}
		if s.Index() != i+1 {
			t.Fatalf("cursor after chunk %d: got %d", i, s.Index())
		}
	}
}

func TestSessionSeekOutOfRange(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, encodeFile(t, 60, 24, 12, 12, 288))
	if err := s.SeekChunk(10); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("seek 10: got %v want ErrOutOfRange", err)
	}
	if err := s.SeekChunk(9); err != nil {
		t.Fatalf("seek 9: %v", err)
	}
}

func TestSessionEndOfStream(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, encodeFile(t, 60, 24, 12, 12, 288))
	for i := 0; i < 10; i++ {
		if s.EOF() {
			t.Fatalf("eof set early before chunk %d", i)
		}
		if _, err := s.Next(); err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
	}
	if !s.EOF() {
		t.Fatalf("eof not set after last chunk")
	}
	if _, err := s.Next(); !errors.Is(err, ErrEndOfStream) {
		t.Fatalf("next past end: got %v want ErrEndOfStream", err)
	}
	if _, err := s.NextChunk(); !errors.Is(err, ErrEndOfStream) {
		t.Fatalf("next chunk past end: got %v want ErrEndOfStream", err)
	}

	// Seeking re-arms the stream.
	if err := s.SeekChunk(8); err != nil {
		t.Fatalf("seek: %v", err)
	}
	if s.EOF() {
		t.Fatalf("eof still set after seek")
	}
}

func TestSessionForEachVisitsInOrder(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, encodeFile(t, 60, 24, 12, 12, 288))
	// Move the cursor first: iteration always restarts at 0.
	if err := s.SeekChunk(6); err != nil {
		t.Fatalf("seek: %v", err)
	}

	var seen []byte
	eofSeen := 0
	err := s.ForEach(func(data []byte) error {
		if len(data) != 288 {
			t.Fatalf("chunk length: got %d", len(data))
		}
		seen = append(seen, data[0])
		if s.EOF() {
			eofSeen++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("for each: %v", err)
	}
	if !bytes.Equal(seen, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}) {
		t.Fatalf("visit order: got %v", seen)
	}
	if eofSeen != 1 {
		t.Fatalf("eof observed on %d chunks, want 1", eofSeen)
	}
}

func TestSessionForEachWithPosition(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, encodeFile(t, 60, 24, 12, 12, 288))
	var got [][2]uint64
	err := s.ForEachWithPosition(func(x, y uint64, data []byte) error {
		if want := byte(y*5 + x + 1); data[0] != want {
			t.Fatalf("chunk (%d,%d): first byte %d want %d", x, y, data[0], want)
		}
		got = append(got, [2]uint64{x, y})
		return nil
	})
	if err != nil {
		t.Fatalf("for each: %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("visited %d chunks, want 10", len(got))
	}
	if got[7] != [2]uint64{2, 1} {
		t.Fatalf("chunk 7 position: got %v want [2 1]", got[7])
	}
}

func TestSessionForEachStopsOnError(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, encodeFile(t, 60, 24, 12, 12, 288))
	stop := errors.New("stop")
	calls := 0
	err := s.ForEachChunk(func(c Chunk) error {
		calls++
		if c.Index == 2 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Fatalf("got %v want visitor error", err)
	}
	if calls != 3 {
		t.Fatalf("calls: got %d want 3", calls)
	}
}

func TestSessionChunkDimensionsNotSwapped(t *testing.T) {
	t.Parallel()

	// Non-square chunks: 20 wide, 8 tall, 3x3 grid.
	s := newTestSession(t, encodeFile(t, 60, 24, 20, 8, 320))
	if err := s.SeekChunk(5); err != nil {
		t.Fatalf("seek: %v", err)
	}
	c, err := s.NextChunk()
	if err != nil {
		t.Fatalf("next chunk: %v", err)
	}
	if c.X != 2 || c.Y != 1 {
		t.Fatalf("position: got (%d,%d) want (2,1)", c.X, c.Y)
	}
	if c.Width != 20 || c.Height != 8 {
		t.Fatalf("dimensions: got %dx%d want 20x8", c.Width, c.Height)
	}
	if c.ImageX() != 40 || c.ImageY() != 8 {
		t.Fatalf("image origin: got (%d,%d) want (40,8)", c.ImageX(), c.ImageY())
	}
	if c.String() != "chunk 2,1 at 40,8" {
		t.Fatalf("string: got %q", c.String())
	}
}

func TestSessionChunkAtDoesNotMoveCursor(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, encodeFile(t, 60, 24, 12, 12, 288))
	c, err := s.ChunkAt(7)
	if err != nil {
		t.Fatalf("chunk at: %v", err)
	}
	if c.X != 2 || c.Y != 1 || c.Data[0] != 8 {
		t.Fatalf("chunk 7: got (%d,%d) first byte %d", c.X, c.Y, c.Data[0])
	}
	if s.Index() != 0 || s.EOF() {
		t.Fatalf("cursor moved: index=%d eof=%v", s.Index(), s.EOF())
	}
	if _, err := s.ChunkAt(10); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("chunk at 10: got %v want ErrOutOfRange", err)
	}
}

func TestSessionChunksIterator(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, encodeFile(t, 60, 24, 12, 12, 288))
	var idx []uint64
	for c, err := range s.Chunks() {
		if err != nil {
			t.Fatalf("iterate: %v", err)
		}
		idx = append(idx, c.Index)
	}
	if len(idx) != 10 {
		t.Fatalf("iterated %d chunks, want 10", len(idx))
	}
	for i, v := range idx {
		if v != uint64(i) {
			t.Fatalf("iteration order: got %v", idx)
		}
	}

	// Breaking early leaves the cursor mid-stream.
	for c := range s.Chunks() {
		if c.Index == 3 {
			break
		}
	}
	if s.Index() != 4 || s.EOF() {
		t.Fatalf("cursor after break: index=%d eof=%v", s.Index(), s.EOF())
	}
}

func TestSessionZeroChunks(t *testing.T) {
	t.Parallel()

	raw, err := NewHeader(0, 0, 12, 12, 0, 288).MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := newTestSession(t, raw)
	calls := 0
	if err := s.ForEach(func([]byte) error { calls++; return nil }); err != nil {
		t.Fatalf("for each: %v", err)
	}
	if calls != 0 {
		t.Fatalf("visited %d chunks of an empty image", calls)
	}
	if _, err := s.Next(); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("next: got %v want ErrOutOfRange", err)
	}
	if err := s.SeekChunk(0); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("seek: got %v want ErrOutOfRange", err)
	}
}

func TestSessionTruncatedData(t *testing.T) {
	t.Parallel()

	raw := encodeFile(t, 60, 24, 12, 12, 288)
	s := newTestSession(t, raw[:len(raw)-10])
	if err := s.SeekChunk(9); err != nil {
		t.Fatalf("seek: %v", err)
	}
	if _, err := s.Next(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("got %v want io.ErrUnexpectedEOF", err)
	}
}

func TestNewSessionInvalidMagic(t *testing.T) {
	t.Parallel()

	raw := encodeFile(t, 60, 24, 12, 12, 288)
	copy(raw, "X565")
	if _, err := NewSession(bytes.NewReader(raw)); !errors.Is(err, ErrInvalidMagic) {
		t.Fatalf("got %v want ErrInvalidMagic", err)
	}
}

func writeTempFile(t *testing.T, raw []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "image"+Ext)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestOpenAndOpenMapped(t *testing.T) {
	t.Parallel()

	raw := encodeFile(t, 60, 24, 12, 12, 288)
	path := writeTempFile(t, raw)

	for name, open := range map[string]func(string) (*Session, error){
		"open":   Open,
		"mapped": OpenMapped,
	} {
		s, err := open(path)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		count := 0
		if err := s.ForEach(func([]byte) error { count++; return nil }); err != nil {
			t.Fatalf("%s: for each: %v", name, err)
		}
		if count != 10 {
			t.Fatalf("%s: visited %d chunks", name, count)
		}
		if err := s.Close(); err != nil {
			t.Fatalf("%s: close: %v", name, err)
		}
		if err := s.Close(); err != nil {
			t.Fatalf("%s: second close: %v", name, err)
		}
		if _, err := s.ChunkData(0); !errors.Is(err, os.ErrClosed) {
			t.Fatalf("%s: read after close: got %v want os.ErrClosed", name, err)
		}
	}
}

func TestOpenErrors(t *testing.T) {
	t.Parallel()

	raw := encodeFile(t, 60, 24, 12, 12, 288)
	copy(raw, "X565")
	path := writeTempFile(t, raw)
	if _, err := Open(path); !errors.Is(err, ErrInvalidMagic) {
		t.Fatalf("open: got %v want ErrInvalidMagic", err)
	}
	if _, err := OpenMapped(path); !errors.Is(err, ErrInvalidMagic) {
		t.Fatalf("open mapped: got %v want ErrInvalidMagic", err)
	}

	short := writeTempFile(t, []byte("c565"))
	if _, err := OpenMapped(short); !errors.Is(err, ErrShortHeader) {
		t.Fatalf("open mapped short: got %v want ErrShortHeader", err)
	}
	if _, err := Open(filepath.Join(t.TempDir(), "missing.c565")); !os.IsNotExist(err) {
		t.Fatalf("missing file: got %v", err)
	}
}
