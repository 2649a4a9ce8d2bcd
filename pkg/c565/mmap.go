package c565

import (
	"bytes"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

type mapping struct {
	data []byte
}

func (m *mapping) Close() error {
	if m.data == nil {
		return nil
	}
	err := unix.Munmap(m.data)
	m.data = nil
	return err
}

// OpenMapped maps the file at path read-only and starts a session over the
// mapping. If mmap is unavailable it falls back to Open.
func OpenMapped(path string) (*Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size64 := stat.Size()
	if size64 < HeaderSize {
		return nil, fmt.Errorf("open %s: %w: file is %d bytes", path, ErrShortHeader, size64)
	}
	if size64 > int64(int(^uint(0)>>1)) {
		return nil, fmt.Errorf("open %s: %w: file too large to map", path, ErrFieldOverflow)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size64), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return Open(path)
	}

	m := &mapping{data: data}
	s, err := NewSession(bytes.NewReader(data))
	if err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	s.closer = m
	return s, nil
}
