// Package c565 implements the c565 chunked raw image container.
//
// A c565 file stores a bitmap pre-sliced into a uniform grid of rectangular
// chunks so a renderer can draw each chunk without partitioning it at render
// time. Pixel content is opaque to this package. The format carries no
// checksum and no compression.
//
// Layout (all integers big-endian, unsigned):
//
//	Offset  Length  Field
//	0       4       magic "c565" (readers also accept "C565")
//	4       4       image width in pixels
//	8       4       image height in pixels
//	12      4       chunk width in pixels
//	16      4       chunk height in pixels
//	20      2       chunk column count
//	22      10      chunk size in bytes
//	32      ...     chunk data, row-major chunk order
//
// Chunk n occupies [32 + n*ChunkSize, 32 + (n+1)*ChunkSize).
package c565

// c565 global constants must never change.
const (
	// Magic is written at offset 0 of every baked file.
	Magic = "c565"

	// MagicUpper is the alternative spelling accepted by readers.
	MagicUpper = "C565"

	// Ext is the conventional file extension.
	Ext = ".c565"

	// HeaderSize is the fixed header length; chunk data starts here.
	HeaderSize = 32

	// BytesPerPixel565 is the pixel width of the color565 encoding the
	// format was named after. ChunkSize is conventionally
	// BytesPerPixel565*ChunkWidth*ChunkHeight but nothing enforces it.
	BytesPerPixel565 = 2
)

// Field offsets within the header.
const (
	offMagic        = 0
	offImageWidth   = 4
	offImageHeight  = 8
	offChunkWidth   = 12
	offChunkHeight  = 16
	offChunkColumns = 20
	offChunkSize    = 22

	chunkSizeWidth = HeaderSize - offChunkSize
)
