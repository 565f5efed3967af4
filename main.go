// collectlink pushes monitoring data to an HTTP(S) collector over a
// reusable keep-alive connection.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"collectlink/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "collectlink: %v\n", err)
		os.Exit(1)
	}
}
