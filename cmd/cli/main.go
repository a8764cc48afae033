package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pratik-mahalle/leafdoctor/internal/cli"
	"github.com/pratik-mahalle/leafdoctor/pkg/client"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx)
	stop()
	if err == nil {
		return
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Code != "" {
		fmt.Fprintf(os.Stderr, "Error [%s]: %s\n", apiErr.Code, apiErr.Message)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(1)
}
