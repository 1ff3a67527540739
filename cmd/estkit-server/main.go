// cmd/estkit-server/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"estkit/internal/serverapp"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	code := serverapp.RunContext(ctx, os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(code)
}
