// Package tileserver serves the chunks of one c565 file over HTTP so a
// renderer can fetch tiles by index or grid position.
package tileserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/labstack/echo/v5"

	"github.com/l3pu5/c565/internal/logger"
	"github.com/l3pu5/c565/pkg/c565"
)

const (
	HeaderChunkIndex = "X-Chunk-Index"
	HeaderChunkX     = "X-Chunk-X"
	HeaderChunkY     = "X-Chunk-Y"
)

// ChunkSource is the read side of an open c565 file. *c565.Session
// satisfies it; ChunkAt must be safe for concurrent use.
type ChunkSource interface {
	Header() c565.Header
	Geometry() c565.Geometry
	ChunkAt(index uint64) (c565.Chunk, error)
}

type Server struct {
	src ChunkSource
	log logger.Logger
	enc *zstd.Encoder
}

func NewServer(src ChunkSource, log logger.Logger) (*Server, error) {
	if src == nil {
		return nil, errors.New("tileserver: nil chunk source")
	}
	if log == nil {
		log = logger.Default()
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("tileserver: zstd encoder: %w", err)
	}
	return &Server{src: src, log: log.With("component", "tileserver"), enc: enc}, nil
}

// Close releases the encoder. The chunk source is owned by the caller.
func (s *Server) Close() error {
	return s.enc.Close()
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/v1/header", s.handleHeader)
	e.GET("/v1/chunks/:index", s.handleChunkByIndex)
	e.GET("/v1/grid/:x/:y", s.handleChunkByPosition)
}

func (s *Server) handleHeader(c *echo.Context) error {
	return writeJSON(c, http.StatusOK, newHeaderResponse(s.src.Header()))
}

func (s *Server) handleChunkByIndex(c *echo.Context) error {
	index, err := strconv.ParseUint(c.Param("index"), 10, 64)
	if err != nil {
		return writeBadRequest(c, fmt.Sprintf("invalid chunk index %q", c.Param("index")))
	}
	return s.serveChunk(c, index)
}

func (s *Server) handleChunkByPosition(c *echo.Context) error {
	x, err := strconv.ParseUint(c.Param("x"), 10, 64)
	if err != nil {
		return writeBadRequest(c, fmt.Sprintf("invalid chunk column %q", c.Param("x")))
	}
	y, err := strconv.ParseUint(c.Param("y"), 10, 64)
	if err != nil {
		return writeBadRequest(c, fmt.Sprintf("invalid chunk row %q", c.Param("y")))
	}
	index, err := s.src.Geometry().Index(x, y)
	if err != nil {
		return s.writeChunkError(c, err)
	}
	return s.serveChunk(c, index)
}

func (s *Server) serveChunk(c *echo.Context, index uint64) error {
	chunk, err := s.src.ChunkAt(index)
	if err != nil {
		return s.writeChunkError(c, err)
	}

	res := c.Response()
	h := res.Header()
	etag := chunkETag(chunk.Data)
	h.Set("ETag", etag)
	h.Set(HeaderChunkIndex, strconv.FormatUint(chunk.Index, 10))
	h.Set(HeaderChunkX, strconv.FormatUint(chunk.X, 10))
	h.Set(HeaderChunkY, strconv.FormatUint(chunk.Y, 10))
	h.Add("Vary", "Accept-Encoding")

	if etagMatches(c.Request().Header.Get("If-None-Match"), etag) {
		return c.NoContent(http.StatusNotModified)
	}

	body := chunk.Data
	if acceptsZstd(c.Request().Header.Get("Accept-Encoding")) {
		body = s.enc.EncodeAll(chunk.Data, make([]byte, 0, len(chunk.Data)))
		h.Set("Content-Encoding", "zstd")
	}
	s.log.Debug("serving chunk", "index", chunk.Index, "x", chunk.X, "y", chunk.Y, "bytes", len(body))
	return c.Blob(http.StatusOK, echo.MIMEOctetStream, body)
}

func (s *Server) writeChunkError(c *echo.Context, err error) error {
	switch {
	case errors.Is(err, c565.ErrOutOfRange):
		return writeNotFound(c, err.Error())
	case errors.Is(err, c565.ErrDimensionMismatch):
		return writeError(c, http.StatusUnprocessableEntity, "geometry_error", err.Error())
	default:
		s.log.Error("chunk read failed", "error", err)
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error())
	}
}

// chunkETag is a cache validator for HTTP clients only; the file format
// itself carries no checksum.
func chunkETag(data []byte) string {
	return fmt.Sprintf("\"%016x\"", xxhash.Sum64(data))
}

func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		candidate = strings.TrimPrefix(candidate, "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}

func acceptsZstd(header string) bool {
	for _, part := range strings.Split(header, ",") {
		coding, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if !strings.EqualFold(strings.TrimSpace(coding), "zstd") {
			continue
		}
		if q, ok := strings.CutPrefix(strings.TrimSpace(params), "q="); ok {
			if v, err := strconv.ParseFloat(q, 64); err == nil && v == 0 {
				return false
			}
		}
		return true
	}
	return false
}
