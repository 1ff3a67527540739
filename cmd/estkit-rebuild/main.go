// cmd/estkit-rebuild/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"estkit/internal/rebuildapp"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	code := rebuildapp.RunContext(ctx, os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(code)
}
