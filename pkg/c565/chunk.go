package c565

import "fmt"

// Chunk is one tile read from a session. Data is owned by the chunk.
type Chunk struct {
	Index  uint64
	X      uint64
	Y      uint64
	Width  uint32
	Height uint32
	Data   []byte
}

// ImageX returns the pixel column of the chunk's top-left corner.
func (c Chunk) ImageX() uint64 { return c.X * uint64(c.Width) }

// ImageY returns the pixel row of the chunk's top-left corner.
func (c Chunk) ImageY() uint64 { return c.Y * uint64(c.Height) }

func (c Chunk) String() string {
	return fmt.Sprintf("chunk %d,%d at %d,%d", c.X, c.Y, c.ImageX(), c.ImageY())
}

func newChunk(h Header, g Geometry, index uint64, data []byte) (Chunk, error) {
	x, y, err := g.Position(index)
	if err != nil {
		return Chunk{}, err
	}
	return Chunk{
		Index:  index,
		X:      x,
		Y:      y,
		Width:  h.ChunkWidth,
		Height: h.ChunkHeight,
		Data:   data,
	}, nil
}
