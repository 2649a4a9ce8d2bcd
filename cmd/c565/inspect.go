package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/l3pu5/c565/internal/logger"
	"github.com/l3pu5/c565/pkg/c565"
)

type inspectReport struct {
	Path          string        `json:"path"`
	FileSize      int64         `json:"file_size"`
	Magic         string        `json:"magic"`
	ImageWidth    uint32        `json:"image_width"`
	ImageHeight   uint32        `json:"image_height"`
	ChunkWidth    uint32        `json:"chunk_width"`
	ChunkHeight   uint32        `json:"chunk_height"`
	ChunkColumns  uint16        `json:"chunk_columns"`
	ChunkSize     uint64        `json:"chunk_size"`
	ChunkRows     uint64        `json:"chunk_rows"`
	ChunkCount    uint64        `json:"chunk_count"`
	Consistent    bool          `json:"consistent"`
	PayloadBytes  uint64        `json:"payload_bytes"`
	TrailingBytes int64         `json:"trailing_bytes"`
	Chunks        []chunkReport `json:"chunks,omitempty"`
}

type chunkReport struct {
	Index  uint64 `json:"index"`
	X      uint64 `json:"x"`
	Y      uint64 `json:"y"`
	ImageX uint64 `json:"image_x"`
	ImageY uint64 `json:"image_y"`
	Offset int64  `json:"offset"`
}

func inspectCmd() *cli.Command {
	var (
		filePath   string
		dir        string
		asJSON     bool
		showChunks bool
		chunkLimit int
	)

	return &cli.Command{
		Name:  "inspect",
		Usage: "Print the header and chunk grid of a .c565 file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "path to .c565 file", Destination: &filePath},
			&cli.StringFlag{Name: "dir", Usage: "directory to pick a .c565 file from", Destination: &dir},
			&cli.BoolFlag{Name: "json", Usage: "print the report as JSON", Destination: &asJSON},
			&cli.BoolFlag{Name: "chunks", Usage: "list every chunk with its grid position and offset", Destination: &showChunks},
			&cli.IntFlag{Name: "chunks-limit", Usage: "limit chunk listing (0 = no limit)", Value: 50, Destination: &chunkLimit},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)

			path, err := resolveImagePath(filePath, dir, os.Stdin, os.Stderr)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			stat, err := os.Stat(path)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: stat %q: %v", path, err), 1)
			}
			if stat.IsDir() {
				return cli.Exit(fmt.Sprintf("error: %s is a directory", path), 1)
			}

			s, err := c565.Open(path)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			defer func() { _ = s.Close() }()

			report, err := buildReport(path, stat.Size(), s, showChunks, chunkLimit)
			if err != nil {
				return err
			}
			if !report.Consistent {
				log.Warn("header does not satisfy bake invariants; column count is advisory",
					"columns", report.ChunkColumns,
					"expected_columns", s.Header().ExpectedColumns())
			}
			if report.TrailingBytes < 0 {
				log.Warn("file is shorter than its chunk grid", "missing_bytes", -report.TrailingBytes)
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printReport(os.Stdout, report)
			return nil
		},
	}
}

func buildReport(path string, size int64, s *c565.Session, withChunks bool, limit int) (inspectReport, error) {
	h := s.Header()
	g := s.Geometry()
	r := inspectReport{
		Path:         path,
		FileSize:     size,
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
	payload, err := h.PayloadSize()
	if err != nil {
		return inspectReport{}, err
	}
	r.PayloadBytes = payload
	if payload <= math.MaxInt64-c565.HeaderSize {
		r.TrailingBytes = size - c565.HeaderSize - int64(payload)
	}

	if !withChunks || g.Columns == 0 {
		return r, nil
	}
	n := g.Count
	if limit > 0 && uint64(limit) < n {
		n = uint64(limit)
	}
	r.Chunks = make([]chunkReport, 0, n)
	for i := uint64(0); i < n; i++ {
		x, y, err := g.Position(i)
		if err != nil {
			return inspectReport{}, err
		}
		off, err := h.ChunkOffset(i)
		if err != nil {
			return inspectReport{}, err
		}
		r.Chunks = append(r.Chunks, chunkReport{
			Index:  i,
			X:      x,
			Y:      y,
			ImageX: x * uint64(h.ChunkWidth),
			ImageY: y * uint64(h.ChunkHeight),
			Offset: off,
		})
	}
	return r, nil
}

func printReport(w io.Writer, r inspectReport) {
	_, _ = fmt.Fprintf(w, "c565 Inspect: %s (%s)\n", r.Path, formatBytes(uint64(r.FileSize)))
	section(w, "Header")
	row(w, "magic", r.Magic)
	row(w, "image", fmt.Sprintf("%dx%d px", r.ImageWidth, r.ImageHeight))
	row(w, "chunk", fmt.Sprintf("%dx%d px", r.ChunkWidth, r.ChunkHeight))
	row(w, "chunk_columns", fmt.Sprint(r.ChunkColumns))
	row(w, "chunk_size", formatBytes(r.ChunkSize))

	section(w, "Grid")
	row(w, "chunk_count", fmt.Sprint(r.ChunkCount))
	row(w, "chunk_rows", fmt.Sprint(r.ChunkRows))
	row(w, "consistent", fmt.Sprint(r.Consistent))
	row(w, "payload", formatBytes(r.PayloadBytes))
	if r.TrailingBytes != 0 {
		row(w, "trailing", fmt.Sprintf("%d B", r.TrailingBytes))
	}

	if len(r.Chunks) == 0 {
		return
	}
	section(w, "Chunks")
	_, _ = fmt.Fprintf(w, "  %-8s %-6s %-6s %-12s %s\n", "index", "x", "y", "pixel", "offset")
	for _, c := range r.Chunks {
		_, _ = fmt.Fprintf(w, "  %-8d %-6d %-6d %-12s %d\n",
			c.Index, c.X, c.Y, fmt.Sprintf("%d,%d", c.ImageX, c.ImageY), c.Offset)
	}
	if uint64(len(r.Chunks)) < r.ChunkCount {
		_, _ = fmt.Fprintf(w, "  ... %d more\n", r.ChunkCount-uint64(len(r.Chunks)))
	}
}

func section(w io.Writer, title string) {
	_, _ = fmt.Fprintf(w, "\n%s\n%s\n", title, strings.Repeat("-", len(title)))
}

func row(w io.Writer, key, value string) {
	_, _ = fmt.Fprintf(w, "  %-14s %s\n", key, value)
}

func formatBytes(b uint64) string {
	const (
		kb = 1024
		mb = 1024 * kb
		gb = 1024 * mb
		tb = 1024 * gb
	)
	switch {
	case b >= tb:
		return fmt.Sprintf("%.2f TiB", float64(b)/float64(tb))
	case b >= gb:
		return fmt.Sprintf("%.2f GiB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.2f MiB", float64(b)/float64(mb))
	case b >= kb:
		return fmt.Sprintf("%.2f KiB", float64(b)/float64(kb))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
