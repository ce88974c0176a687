package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"folio/internal/cli"
	"folio/internal/config"
	"folio/internal/gui"
	"folio/internal/logging"
	"folio/internal/session"
)

func main() {
	if len(os.Args) < 2 {
		cmdView(nil)
		return
	}

	command := os.Args[1]

	switch command {
	case "info", "render", "spreads":
		cfg := loadConfig("")
		runner := cli.NewRunner(os.Stdout, newLogger(cfg))
		if err := runner.Run(context.Background(), os.Args[1:]); err != nil {
			fail(err)
		}

	case "view":
		cmdView(os.Args[2:])

	case "help", "-h", "--help":
		printUsage()

	default:
		// A bare document or URL opens the viewer
		if looksLikeDocument(command) {
			cmdView(os.Args[1:])
		} else {
			fmt.Printf("Unknown command: %s\n", command)
			printUsage()
			os.Exit(1)
		}
	}
}

func looksLikeDocument(arg string) bool {
	lower := strings.ToLower(arg)
	return strings.HasSuffix(lower, ".pdf") ||
		strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "file://")
}

func printUsage() {
	fmt.Println(`
  ┌─┐┌─┐┬  ┬┌─┐
  ├┤ │ ││  ││ │
  └  └─┘┴─┘┴└─┘
  A book-style PDF viewer

Usage:
  folio <command> [arguments]

Commands:
  view [file.pdf|url] [options]  Open the viewer
    -name <title>                Name shown in the header
    -config <file.toml>          Configuration file (default: $FOLIO_CONFIG)
  info <file.pdf|url>            Show PDF metadata and page count
  render <file.pdf|url> [opts]   Render a page to an image
    -o <output.png>              Output file (default: output.png)
    -p <page>                    Page number, from 1 (default: 1)
    -scale <n>                   Multiplier over 96 DPI (default: 1)
    -format <png|jpeg>           Output format (default: from -o)
    -trim                        Trim white margins
  spreads <file.pdf|url>         List the spreads the viewer shows
    -narrow                      Single pages, as on narrow windows
  <file.pdf|url>                 Open in the viewer (shortcut)

Examples:
  folio info brochure.pdf
  folio render https://example.com/catalog.pdf -p 2 -scale 2 -o page2.png
  folio https://example.com/catalog.pdf`)
}

func cmdView(args []string) {
	var location, name, configPath string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-name":
			if i+1 < len(args) {
				name = args[i+1]
				i++
			}
		case "-config":
			if i+1 < len(args) {
				configPath = args[i+1]
				i++
			}
		default:
			location = args[i]
		}
	}

	cfg := loadConfig(configPath)
	app := gui.NewApp(cfg, newLogger(cfg), &session.MemoryVisits{})
	if location != "" {
		app.RunWithURL(location, name)
	} else {
		app.Run()
	}
}

func loadConfig(flagPath string) config.Config {
	cfg, err := config.Load(config.Path(flagPath))
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func newLogger(cfg config.Config) *slog.Logger {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		fmt.Printf("Error configuring logging: %v\n", err)
		os.Exit(1)
	}
	return logger
}

func fail(err error) {
	fmt.Printf("Error: %v\n", err)
	if errors.Is(err, cli.ErrUsage) {
		printUsage()
	}
	os.Exit(1)
}
