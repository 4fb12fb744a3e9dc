package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alexanderramin/noteline/internal/app"
	"github.com/alexanderramin/noteline/internal/cli"
	"github.com/alexanderramin/noteline/internal/config"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Configuration lives next to the vault: .noteline.yaml in the working
	// directory, overridden by NOTELINE_* env vars.
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("finding working directory: %w", err)
	}
	cfg, err := config.Load(wd)
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := app.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	cliApp := cli.NewApp(a)
	cliApp.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	return cli.NewRootCmd(cliApp).ExecuteContext(ctx)
}
