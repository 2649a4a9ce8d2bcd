package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/l3pu5/c565/internal/logger"
	"github.com/l3pu5/c565/internal/slicer"
	"github.com/l3pu5/c565/pkg/c565"
)

func extractCmd() *cli.Command {
	var (
		filePath string
		outDir   string
		index    int
		assemble string
	)

	return &cli.Command{
		Name:  "extract",
		Usage: "Write chunks of a .c565 file out as raw files, or reassemble the full image",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "path to .c565 file", Required: true, Destination: &filePath},
			&cli.StringFlag{Name: "out", Usage: "directory for chunk_<y>_<x>.bin files", Destination: &outDir},
			&cli.IntFlag{Name: "index", Usage: "extract only this chunk index (-1 = all)", Value: -1, Destination: &index},
			&cli.StringFlag{Name: "assemble", Usage: "write the reassembled row-major image to this path", Destination: &assemble},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			if outDir == "" && assemble == "" {
				return cli.Exit("error: one of --out or --assemble is required", 1)
			}

			s, err := c565.OpenMapped(filePath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			defer func() { _ = s.Close() }()

			if assemble != "" {
				l, img, err := slicer.Assemble(s)
				if err != nil {
					return fmt.Errorf("assemble: %w", err)
				}
				if err := os.WriteFile(assemble, img, 0o644); err != nil {
					return err
				}
				log.Info("assembled image", "path", assemble,
					"image", fmt.Sprintf("%dx%d", l.ImageWidth, l.ImageHeight), "bpp", l.BytesPerPixel)
			}

			if outDir == "" {
				return nil
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			if index >= 0 {
				c, err := s.ChunkAt(uint64(index))
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				return writeChunk(outDir, c)
			}

			n := 0
			err = s.ForEachChunk(func(c c565.Chunk) error {
				n++
				return writeChunk(outDir, c)
			})
			if err != nil {
				return fmt.Errorf("extract: %w", err)
			}
			log.Info("extracted chunks", "dir", outDir, "chunks", n)
			return nil
		},
	}
}

func chunkFileName(c c565.Chunk) string {
	return fmt.Sprintf("chunk_%d_%d.bin", c.Y, c.X)
}

func writeChunk(dir string, c c565.Chunk) error {
	return os.WriteFile(filepath.Join(dir, chunkFileName(c)), c.Data, 0o644)
}
