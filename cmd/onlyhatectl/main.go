// Command onlyhatectl is the terminal admin console for the label catalog.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"onlyhate/internal/logging"
)

func main() {
	logging.Setup(logging.Config{Level: envOrDefault("LOG_LEVEL", "warn"), Format: "text", Output: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Debug().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
