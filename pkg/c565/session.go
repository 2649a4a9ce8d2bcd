package c565

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
)

// Session is an open read cursor over a c565 file.
//
// A session tracks one linear chunk index and an end-of-stream flag. It is
// not safe for concurrent use; ChunkData and ChunkAt do not touch the cursor
// and may be called concurrently when the backing io.ReaderAt allows it.
type Session struct {
	r      io.ReaderAt
	closer io.Closer

	header Header
	geo    Geometry

	index uint64
	eof   bool
}

// NewSession reads the header from r and positions the cursor at chunk 0.
// The caller keeps ownership of r.
func NewSession(r io.ReaderAt) (*Session, error) {
	if r == nil {
		return nil, errors.New("c565: nil reader")
	}
	h, err := ReadHeader(io.NewSectionReader(r, 0, HeaderSize))
	if err != nil {
		return nil, err
	}
	return &Session{
		r:      r,
		header: h,
		geo:    h.Geometry(),
	}, nil
}

// Open opens the file at path and starts a session over it. The file is
// closed by Session.Close, or before returning on any error.
func Open(path string) (*Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	s, err := NewSession(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	s.closer = f
	return s, nil
}

// Close releases the backing file or mapping. It is safe to call more than
// once.
func (s *Session) Close() error {
	if s == nil || s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	s.r = nil
	return err
}

func (s *Session) Header() Header     { return s.header }
func (s *Session) Geometry() Geometry { return s.geo }

// Index returns the chunk index the next read will consume.
func (s *Session) Index() uint64 { return s.index }

// EOF reports whether the last chunk has been read.
func (s *Session) EOF() bool { return s.eof }

// SeekChunk moves the cursor to index without reading and re-arms the
// stream.
func (s *Session) SeekChunk(index uint64) error {
	if index >= s.geo.Count {
		return fmt.Errorf("%w: index %d, chunk count %d", ErrOutOfRange, index, s.geo.Count)
	}
	s.index = index
	s.eof = false
	return nil
}

// Next reads the chunk under the cursor and advances it. It returns
// ErrEndOfStream once the last chunk has been consumed.
func (s *Session) Next() ([]byte, error) {
	if s.eof {
		return nil, ErrEndOfStream
	}
	i := s.index
	data, err := s.ChunkData(i)
	if err != nil {
		return nil, err
	}
	s.index = i + 1
	if i == s.geo.Count-1 {
		s.eof = true
	}
	return data, nil
}

// NextChunk is Next with the grid position of the chunk attached.
func (s *Session) NextChunk() (Chunk, error) {
	if s.eof {
		return Chunk{}, ErrEndOfStream
	}
	i := s.index
	if _, _, err := s.geo.Position(i); err != nil {
		return Chunk{}, err
	}
	data, err := s.Next()
	if err != nil {
		return Chunk{}, err
	}
	return newChunk(s.header, s.geo, i, data)
}

// ChunkData reads chunk index without moving the cursor.
func (s *Session) ChunkData(index uint64) ([]byte, error) {
	if s.r == nil {
		return nil, os.ErrClosed
	}
	if s.geo.Count == 0 || index > s.geo.Count-1 {
		return nil, fmt.Errorf("%w: index %d, chunk count %d", ErrOutOfRange, index, s.geo.Count)
	}
	off, n, err := s.header.chunkRange(index)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if err := readFullAt(s.r, buf, off); err != nil {
		return nil, fmt.Errorf("chunk %d: %w", index, err)
	}
	return buf, nil
}

// ChunkAt reads chunk index with its grid position, without moving the
// cursor.
func (s *Session) ChunkAt(index uint64) (Chunk, error) {
	if _, _, err := s.geo.Position(index); err != nil {
		return Chunk{}, err
	}
	data, err := s.ChunkData(index)
	if err != nil {
		return Chunk{}, err
	}
	return newChunk(s.header, s.geo, index, data)
}

// ForEach visits every chunk from index 0 in order. Iteration stops at the
// first error returned by fn.
func (s *Session) ForEach(fn func(data []byte) error) error {
	return s.drive(func() error {
		data, err := s.Next()
		if err != nil {
			return err
		}
		return fn(data)
	})
}

// ForEachWithPosition is ForEach with each chunk's grid position.
func (s *Session) ForEachWithPosition(fn func(x, y uint64, data []byte) error) error {
	return s.drive(func() error {
		x, y, err := s.geo.Position(s.index)
		if err != nil {
			return err
		}
		data, err := s.Next()
		if err != nil {
			return err
		}
		return fn(x, y, data)
	})
}

// ForEachChunk is ForEach yielding Chunk values.
func (s *Session) ForEachChunk(fn func(Chunk) error) error {
	return s.drive(func() error {
		c, err := s.NextChunk()
		if err != nil {
			return err
		}
		return fn(c)
	})
}

// Chunks returns an iterator over all chunks from index 0. It drives the
// session cursor; a read error is yielded once and ends the sequence.
func (s *Session) Chunks() iter.Seq2[Chunk, error] {
	return func(yield func(Chunk, error) bool) {
		if s.geo.Count == 0 {
			return
		}
		if err := s.SeekChunk(0); err != nil {
			yield(Chunk{}, err)
			return
		}
		for !s.eof {
			c, err := s.NextChunk()
			if !yield(c, err) || err != nil {
				return
			}
		}
	}
}

func (s *Session) drive(step func() error) error {
	if s.geo.Count == 0 {
		return nil
	}
	if err := s.SeekChunk(0); err != nil {
		return err
	}
	for !s.eof {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func readFullAt(r io.ReaderAt, buf []byte, off int64) error {
	for read := 0; read < len(buf); {
		n, err := r.ReadAt(buf[read:], off+int64(read))
		read += n
		if read == len(buf) {
			return nil
		}
		if err == io.EOF {
			return io.ErrUnexpectedEOF
		}
		if err != nil {
			return err
		}
	}
	return nil
}
