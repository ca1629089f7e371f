package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/libport/internal/server"
	"github.com/desertthunder/libport/internal/shared"
	"github.com/desertthunder/libport/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"
)

// Serve exposes load, convert and serialize over HTTP until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	folder := r.config.Library.ExportFolderPath()
	if f := cmd.String("folder"); f != "" {
		folder = shared.ExpandPath(f)
	}

	srvConfig := r.config.Server
	if host := cmd.String("host"); host != "" {
		srvConfig.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		srvConfig.Port = int(port)
	}

	r.openHistory()

	opts := tasks.RunOpts{
		InputPath:  r.config.Library.InputPath(folder),
		OutputPath: r.config.Library.OutputPath(folder),
		Serialize:  tasks.SerializeOptionsFromConfig(r.config.Output),
	}

	var limiter *rate.Limiter
	if perSecond := cmd.Float("rate"); perSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(perSecond), max(1, int(perSecond)))
	}

	logger := shared.WithLogger(r.logger, "component", "server")
	handler := server.NewLibraryHandler(r.engine, opts, limiter, logger)
	srv := server.New(srvConfig.Addr(), server.NewRouter(handler, logger), logger)

	r.writePlain("Serving %s on http://%s\n", opts.InputPath, srvConfig.Addr())
	return srv.ListenAndServe(ctx)
}
