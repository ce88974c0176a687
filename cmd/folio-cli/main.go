// CLI-only version (no GUI dependencies)
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"folio/internal/cli"
	"folio/internal/config"
	"folio/internal/logging"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "help", "-h", "--help":
		printUsage()
		return
	}

	cfg, err := config.Load(config.Path(""))
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		fmt.Printf("Error configuring logging: %v\n", err)
		os.Exit(1)
	}

	runner := cli.NewRunner(os.Stdout, logger)
	if err := runner.Run(context.Background(), os.Args[1:]); err != nil {
		fmt.Printf("Error: %v\n", err)
		if errors.Is(err, cli.ErrUsage) {
			printUsage()
		}
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`
  ┌─┐┌─┐┬  ┬┌─┐
  ├┤ │ ││  ││ │
  └  └─┘┴─┘┴└─┘
  A book-style PDF viewer (CLI version)

Usage:
  folio-cli <command> [arguments]

Commands:
  info <file.pdf|url>            Show PDF metadata and page count
  render <file.pdf|url> [opts]   Render a page to an image
    -o <output.png>              Output file (default: output.png)
    -p <page>                    Page number, from 1 (default: 1)
    -scale <n>                   Multiplier over 96 DPI (default: 1)
    -format <png|jpeg>           Output format (default: from -o)
    -trim                        Trim white margins
  spreads <file.pdf|url>         List the spreads the viewer shows
    -narrow                      Single pages, as on narrow windows

Configuration is read from $FOLIO_CONFIG when set.`)
}
