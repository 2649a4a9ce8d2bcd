package main

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/l3pu5/c565/internal/logger"
	"github.com/l3pu5/c565/internal/slicer"
	"github.com/l3pu5/c565/pkg/c565"
)

func bakeCmd() *cli.Command {
	var (
		inPath    string
		outPath   string
		width     int
		height    int
		chunkW    int
		chunkH    int
		bpp       int
		chunkSize int
		chunked   bool
	)

	return &cli.Command{
		Name:  "bake",
		Usage: "Slice a raw pixel buffer into chunks and write a .c565 file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "input",
				Aliases:     []string{"in"},
				Usage:       "raw pixel buffer, row-major from the top-left pixel",
				Required:    true,
				Destination: &inPath,
			},
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"out"},
				Usage:       "output .c565 path (default: <out_dir>/<input name>.c565)",
				Destination: &outPath,
			},
			&cli.IntFlag{Name: "width", Aliases: []string{"W"}, Usage: "image width in pixels", Required: true, Destination: &width},
			&cli.IntFlag{Name: "height", Aliases: []string{"H"}, Usage: "image height in pixels", Required: true, Destination: &height},
			&cli.IntFlag{Name: "chunk-width", Aliases: []string{"cw"}, Usage: "chunk width in pixels", Value: 16, Destination: &chunkW},
			&cli.IntFlag{Name: "chunk-height", Aliases: []string{"ch"}, Usage: "chunk height in pixels", Value: 16, Destination: &chunkH},
			&cli.IntFlag{Name: "bpp", Usage: "bytes per pixel", Value: c565.BytesPerPixel565, Destination: &bpp},
			&cli.IntFlag{
				Name:        "chunk-size",
				Usage:       "chunk size in bytes written to the header (0 = bpp*chunk-width*chunk-height); only with --chunked",
				Destination: &chunkSize,
			},
			&cli.BoolFlag{
				Name:        "chunked",
				Usage:       "input is already in chunk-major order; write it through unchanged",
				Destination: &chunked,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyBakeConfig(cmd, cfg, &chunkW, &chunkH, &bpp)

			dims := map[string]int{"width": width, "height": height, "chunk-width": chunkW, "chunk-height": chunkH}
			for name, v := range dims {
				if v < 0 || int64(v) > math.MaxUint32 {
					return cli.Exit(fmt.Sprintf("error: --%s %d out of range", name, v), 1)
				}
			}
			if bpp <= 0 {
				return cli.Exit(fmt.Sprintf("error: --bpp must be positive, got %d", bpp), 1)
			}
			if chunkSize != 0 && !chunked {
				return cli.Exit("error: --chunk-size requires --chunked", 1)
			}

			out, defaulted, err := resolveBakeOut(inPath, outPath, cfg.OutDir)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: resolve output: %v", err), 1)
			}
			if defaulted {
				log.Info("no --output given", "path", out)
			}

			img, err := os.ReadFile(inPath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: read input: %v", err), 1)
			}

			layout := slicer.Layout{
				ImageWidth:    uint32(width),
				ImageHeight:   uint32(height),
				ChunkWidth:    uint32(chunkW),
				ChunkHeight:   uint32(chunkH),
				BytesPerPixel: bpp,
			}

			var h c565.Header
			if chunked {
				h, err = bakeChunked(layout, uint64(chunkSize), img, out)
			} else {
				h, err = slicer.Bake(layout, img, out)
			}
			if err != nil {
				return fmt.Errorf("bake: %w", err)
			}

			g := h.Geometry()
			log.Info("baked image",
				"path", out,
				"image", fmt.Sprintf("%dx%d", h.ImageWidth, h.ImageHeight),
				"chunk", fmt.Sprintf("%dx%d", h.ChunkWidth, h.ChunkHeight),
				"columns", g.Columns,
				"rows", g.Rows,
				"chunks", g.Count,
				"chunk_size", h.ChunkSize,
			)
			return nil
		},
	}
}

// bakeChunked writes an already chunk-major payload through c565.Baker.
func bakeChunked(l slicer.Layout, chunkSize uint64, payload []byte, out string) (c565.Header, error) {
	if chunkSize == 0 {
		chunkSize = l.ChunkSize()
	}
	b := c565.NewBaker()
	b.SetImageDimensions(l.ImageWidth, l.ImageHeight)
	if err := b.BakeChunkDimensions(l.ChunkWidth, l.ChunkHeight, chunkSize); err != nil {
		return c565.Header{}, err
	}
	if err := b.BakeFile(out, payload); err != nil {
		return c565.Header{}, err
	}
	return b.Header()
}
