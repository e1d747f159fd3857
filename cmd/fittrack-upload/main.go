package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/claude/fittrack/internal/upload"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "FitTrack server URL (e.g. https://fittrack.tail1234.ts.net)")
	dir := flag.String("path", "", "directory containing Alpha Progression CSV exports")
	apiKey := flag.String("api-key", os.Getenv("FITTRACK_API_KEY"), "import API key (default $FITTRACK_API_KEY)")
	dryRun := flag.Bool("dry-run", false, "list the files that would be sent without sending them")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("fittrack-upload", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *dir == "" {
		fmt.Fprintf(os.Stderr, "Usage: fittrack-upload -server <URL> -path <export dir> [-api-key KEY] [-dry-run]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if !*dryRun && (*serverURL == "" || *apiKey == "") {
		fmt.Fprintf(os.Stderr, "Error: -server and -api-key are required (or use -dry-run)\n")
		os.Exit(1)
	}

	info, err := os.Stat(*dir)
	if err != nil || !info.IsDir() {
		log.Error("export directory not found", "path", *dir)
		os.Exit(1)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Error("failed to get home directory", "error", err)
		os.Exit(1)
	}
	state, err := upload.OpenStateDB(filepath.Join(homeDir, ".fittrack-upload"))
	if err != nil {
		log.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	var client *upload.Client
	if !*dryRun {
		client = upload.NewClient(*serverURL, *apiKey)
	} else {
		log.Info("DRY RUN mode: files will be listed but not sent")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stats, err := upload.New(client, state, *dir, *dryRun, log).Run(ctx)
	printStats(stats)
	if err != nil {
		log.Error("upload failed", "error", err)
		state.Close()
		os.Exit(1)
	}
	if stats.FilesErrored > 0 {
		log.Warn("upload finished with errors", "files", stats.FilesErrored)
		state.Close()
		os.Exit(1)
	}
	log.Info("upload complete")
}

func printStats(stats *upload.Stats) {
	fmt.Println()
	fmt.Println("=== Upload Summary ===")
	fmt.Printf("  Files total:      %d\n", stats.FilesTotal)
	fmt.Printf("  Files uploaded:   %d\n", stats.FilesUploaded)
	fmt.Printf("  Files skipped:    %d (already uploaded)\n", stats.FilesSkipped)
	fmt.Printf("  Files errored:    %d\n", stats.FilesErrored)
	fmt.Println()
	fmt.Printf("  Sessions:         %d (%d already logged)\n", stats.SessionsReceived, stats.SessionsSkipped)
	fmt.Printf("  Workouts added:   %d\n", stats.WorkoutsInserted)
	fmt.Printf("  Sets added:       %d\n", stats.SetsInserted)
	fmt.Printf("  New records:      %d\n", stats.RecordsSet)

	if len(stats.CreatedExercises) > 0 {
		fmt.Printf("\n  New custom exercises:\n")
		for _, name := range stats.CreatedExercises {
			fmt.Printf("    - %s\n", name)
		}
	}
	fmt.Println()
}
