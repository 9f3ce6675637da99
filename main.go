package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"comanda/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "comanda:", err)
		os.Exit(1)
	}
}
