package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/geodash/internal/client/cli"
	"github.com/dmitrijs2005/geodash/internal/client/client"
	"github.com/dmitrijs2005/geodash/internal/client/config"
	"github.com/dmitrijs2005/geodash/internal/logging"
)

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	logger := logging.NewJSONLogger(os.Stderr, slog.LevelWarn)

	dial := func(c *config.Config) (cli.Backend, error) {
		return client.NewGRPCClient(c.ServerEndpointAddr,
			client.WithAPIKey(c.APIKey),
			client.WithTimeout(c.RequestTimeout),
			client.WithLogger(logger),
		)
	}

	if err := cli.NewRootCommand(cfg, dial, logger).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}

}
