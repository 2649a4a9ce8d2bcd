package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/l3pu5/c565/internal/logger"
	"github.com/l3pu5/c565/internal/tileserver"
	"github.com/l3pu5/c565/pkg/c565"
)

func serveCmd() *cli.Command {
	var (
		filePath    string
		dir         string
		addr        string
		readTimeout time.Duration
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the chunks of a .c565 file over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "path to .c565 file", Destination: &filePath},
			&cli.StringFlag{Name: "dir", Usage: "directory to pick a .c565 file from", Destination: &dir},
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8565",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read header timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyServeConfig(cmd, cfg, &addr)

			path, err := resolveImagePath(filePath, dir, os.Stdin, os.Stderr)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			s, err := c565.OpenMapped(path)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			defer func() { _ = s.Close() }()

			server, err := tileserver.NewServer(s, log)
			if err != nil {
				return err
			}
			defer func() { _ = server.Close() }()

			e := echo.New()
			e.Use(tileserver.RequestID())
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)

			g := s.Geometry()
			log.Info("starting tile server", "address", addr, "file", path, "chunks", g.Count)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
