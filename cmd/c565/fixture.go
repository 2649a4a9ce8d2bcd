package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/l3pu5/c565/internal/fixture"
	"github.com/l3pu5/c565/internal/logger"
)

func fixtureCmd() *cli.Command {
	var outPath string

	return &cli.Command{
		Name:  "fixture",
		Usage: "Write the 60x24 reference test image",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "out",
				Usage:       "output path",
				Value:       "testfile.c565",
				Destination: &outPath,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := fixture.WriteFile(outPath); err != nil {
				return fmt.Errorf("fixture: %w", err)
			}
			logger.FromContext(ctx).Info("wrote fixture", "path", outPath, "header", fixture.Header().String())
			return nil
		},
	}
}
