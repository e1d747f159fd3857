package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/claude/fittrack/internal/logging"
	fitmcp "github.com/claude/fittrack/internal/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", os.Getenv("FITTRACK_URL"), "FitTrack server URL (e.g. https://fittrack.tail1234.ts.net)")
	logFile := flag.String("log-file", "", "write logs to this file instead of stderr")
	logLevel := flag.String("log-level", "info", "debug, info, warn or error")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("fittrack-mcp", Version)
		return
	}
	if *serverURL == "" {
		fmt.Fprintf(os.Stderr, "Usage: fittrack-mcp -server <URL> [-log-file path]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// stdout carries the protocol, so logs go to a file or stderr.
	var log *slog.Logger
	var closer io.Closer = io.NopCloser(nil)
	if *logFile != "" {
		log, closer = logging.New(logging.Options{Level: *logLevel, File: *logFile})
	} else {
		h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logging.ParseLevel(*logLevel)})
		log = slog.New(logging.NewContextHandler(h))
	}
	defer closer.Close()

	s := fitmcp.New(fitmcp.NewHTTPClient(*serverURL), Version, log)
	log.Info("fittrack-mcp serving stdio", "server", *serverURL)
	if err := mcpserver.ServeStdio(s); err != nil {
		log.Error("stdio server stopped", "error", err)
		fmt.Fprintf(os.Stderr, "fittrack-mcp: %v\n", err)
		closer.Close()
		os.Exit(1)
	}
}
