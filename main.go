package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	clientagent "ride-hail-realtime/cmd/client_agent"
	"ride-hail-realtime/internal/cli"
)

func main() {
	// context cancelled on SIGINT/SIGTERM for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	root := cli.NewRootCommand(func(ctx context.Context, configPath, role string) error {
		return clientagent.Run(ctx, clientagent.Options{ConfigPath: configPath, Role: role})
	})
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cancel()
		os.Exit(1)
	}
}
