package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/PolarWolf314/ripenv/cmd"
	"github.com/PolarWolf314/ripenv/internal/ui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cmd.RootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		if !errors.Is(err, cmd.ErrReported) {
			fmt.Fprint(os.Stderr, ui.FailureLine(err.Error()))
		}
		os.Exit(1)
	}
}
