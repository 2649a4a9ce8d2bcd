package tileserver

import (
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/l3pu5/c565/pkg/c565"
)

type ErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

type HeaderResponse struct {
	Magic        string `json:"magic"`
	ImageWidth   uint32 `json:"image_width"`
	ImageHeight  uint32 `json:"image_height"`
	ChunkWidth   uint32 `json:"chunk_width"`
	ChunkHeight  uint32 `json:"chunk_height"`
	ChunkColumns uint16 `json:"chunk_columns"`
	ChunkSize    uint64 `json:"chunk_size"`
	ChunkRows    uint64 `json:"chunk_rows"`
	ChunkCount   uint64 `json:"chunk_count"`
	Consistent   bool   `json:"consistent"`
}

func newHeaderResponse(h c565.Header) HeaderResponse {
	g := h.Geometry()
	return HeaderResponse{
		Magic:        string(h.Magic[:]),
		ImageWidth:   h.ImageWidth,
		ImageHeight:  h.ImageHeight,
		ChunkWidth:   h.ChunkWidth,
		ChunkHeight:  h.ChunkHeight,
		ChunkColumns: h.ChunkColumns,
		ChunkSize:    h.ChunkSize,
		ChunkRows:    g.Rows,
		ChunkCount:   g.Count,
		Consistent:   h.Consistent(),
	}
}

func writeJSON(c *echo.Context, status int, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Blob(status, echo.MIMEApplicationJSON, b)
}

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg)
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg)
}

func writeError(c *echo.Context, status int, errType, msg string) error {
	return writeJSON(c, status, map[string]any{
		"error": ErrorBody{
			Message: msg,
			Type:    errType,
		},
	})
}

// RequestID tags every response with an X-Request-Id, reusing the
// client's value when it sent one.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			id := c.Request().Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, id)
			return next(c)
		}
	}
}
