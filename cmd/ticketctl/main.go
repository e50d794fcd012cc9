package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ticketflow/ticketflow/internal/ticketctl"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := ticketctl.New().Run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
