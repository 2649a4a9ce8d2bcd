package c565

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Header is the fixed 32-byte preamble of a c565 file.
type Header struct {
	Magic        [4]byte
	ImageWidth   uint32
	ImageHeight  uint32
	ChunkWidth   uint32
	ChunkHeight  uint32
	ChunkColumns uint16
	ChunkSize    uint64
}

// NewHeader returns a header carrying the canonical magic.
func NewHeader(imageW, imageH, chunkW, chunkH uint32, columns uint16, chunkSize uint64) Header {
	h := Header{
		ImageWidth:   imageW,
		ImageHeight:  imageH,
		ChunkWidth:   chunkW,
		ChunkHeight:  chunkH,
		ChunkColumns: columns,
		ChunkSize:    chunkSize,
	}
	copy(h.Magic[:], Magic)
	return h
}

// Valid reports whether the magic is one of the accepted spellings.
func (h *Header) Valid() bool {
	m := string(h.Magic[:])
	return m == Magic || m == MagicUpper
}

// EncodeHeader writes h into the first HeaderSize bytes of dst.
// A zero magic is written as Magic.
func EncodeHeader(dst []byte, h Header) error {
	if len(dst) < HeaderSize {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrShortHeader, HeaderSize, len(dst))
	}
	if h.Magic == [4]byte{} {
		copy(h.Magic[:], Magic)
	}
	if !h.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMagic, h.Magic[:])
	}

	copy(dst[offMagic:], h.Magic[:])
	binary.BigEndian.PutUint32(dst[offImageWidth:], h.ImageWidth)
	binary.BigEndian.PutUint32(dst[offImageHeight:], h.ImageHeight)
	binary.BigEndian.PutUint32(dst[offChunkWidth:], h.ChunkWidth)
	binary.BigEndian.PutUint32(dst[offChunkHeight:], h.ChunkHeight)
	binary.BigEndian.PutUint16(dst[offChunkColumns:], h.ChunkColumns)

	// 10-byte field: two high zero bytes, then the uint64.
	dst[offChunkSize] = 0
	dst[offChunkSize+1] = 0
	binary.BigEndian.PutUint64(dst[offChunkSize+2:], h.ChunkSize)
	return nil
}

// DecodeHeader parses the first HeaderSize bytes of src.
// Field values are not range checked against each other.
func DecodeHeader(src []byte) (Header, error) {
	var h Header
	if len(src) < len(h.Magic) {
		return Header{}, fmt.Errorf("%w: have %d bytes", ErrShortHeader, len(src))
	}
	copy(h.Magic[:], src[offMagic:offMagic+4])
	if !h.Valid() {
		return Header{}, fmt.Errorf("%w: %q", ErrInvalidMagic, h.Magic[:])
	}
	if len(src) < HeaderSize {
		return Header{}, fmt.Errorf("%w: need %d bytes, have %d", ErrShortHeader, HeaderSize, len(src))
	}

	h.ImageWidth = binary.BigEndian.Uint32(src[offImageWidth:])
	h.ImageHeight = binary.BigEndian.Uint32(src[offImageHeight:])
	h.ChunkWidth = binary.BigEndian.Uint32(src[offChunkWidth:])
	h.ChunkHeight = binary.BigEndian.Uint32(src[offChunkHeight:])
	h.ChunkColumns = binary.BigEndian.Uint16(src[offChunkColumns:])

	if src[offChunkSize] != 0 || src[offChunkSize+1] != 0 {
		return Header{}, fmt.Errorf("%w: chunk size %x", ErrFieldOverflow, src[offChunkSize:HeaderSize])
	}
	h.ChunkSize = binary.BigEndian.Uint64(src[offChunkSize+2:])
	return h, nil
}

// ReadHeader reads and decodes a header from r. The magic is checked
// before the remaining fields are read, so a foreign file costs one
// 4-byte read.
func ReadHeader(r io.Reader) (Header, error) {
	var raw [HeaderSize]byte
	if _, err := io.ReadFull(r, raw[:4]); err != nil {
		return Header{}, fmt.Errorf("%w: %w", ErrShortHeader, err)
	}
	if m := string(raw[:4]); m != Magic && m != MagicUpper {
		return Header{}, fmt.Errorf("%w: %q", ErrInvalidMagic, raw[:4])
	}
	if _, err := io.ReadFull(r, raw[4:]); err != nil {
		return Header{}, fmt.Errorf("%w: %w", ErrShortHeader, err)
	}
	return DecodeHeader(raw[:])
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (h Header) MarshalBinary() ([]byte, error) {
	buf := make([]byte, HeaderSize)
	if err := EncodeHeader(buf, h); err != nil {
		return nil, err
	}
	return buf, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (h *Header) UnmarshalBinary(data []byte) error {
	decoded, err := DecodeHeader(data)
	if err != nil {
		return err
	}
	*h = decoded
	return nil
}

func (h Header) String() string {
	return fmt.Sprintf("image %dx%d chunks %dx%d columns %d chunk size %d",
		h.ImageWidth, h.ImageHeight, h.ChunkWidth, h.ChunkHeight, h.ChunkColumns, h.ChunkSize)
}
