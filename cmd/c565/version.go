package main

import (
	"context"
	"fmt"

	"github.com/l3pu5/c565/internal/version"
	"github.com/l3pu5/c565/pkg/c565"

	"github.com/urfave/cli/v3"
)

func versionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			info := version.Resolve()
			fmt.Printf("version:    %s\n", info.Version)
			if info.Commit != "" {
				fmt.Printf("commit:     %s\n", info.Commit)
			}
			if info.BuildTime != "" {
				fmt.Printf("build time: %s\n", info.BuildTime)
			}
			if info.Dirty {
				fmt.Println("modified:   true")
			}
			fmt.Printf("go:         %s\n", info.GoVersion)
			fmt.Printf("format:     %s header, %d bytes\n", c565.Magic, c565.HeaderSize)
			return nil
		},
	}
}
