package upload

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Stats tracks upload progress.
type Stats struct {
	FilesTotal    int
	FilesUploaded int
	FilesSkipped  int
	FilesErrored  int

	SessionsReceived int
	SessionsSkipped  int
	WorkoutsInserted int
	SetsInserted     int
	RecordsSet       int
	CreatedExercises []string
}

// Uploader walks an export directory and POSTs every new or changed Alpha
// Progression CSV to the FitTrack server.
type Uploader struct {
	client *Client
	state  *StateDB
	dir    string
	dryRun bool
	log    *slog.Logger
	stats  Stats
}

// New creates a new Uploader. client may be nil in dry-run mode.
func New(client *Client, state *StateDB, dir string, dryRun bool, log *slog.Logger) *Uploader {
	return &Uploader{
		client: client,
		state:  state,
		dir:    dir,
		dryRun: dryRun,
		log:    log,
	}
}

// Run uploads the exports in file name order. A file that fails is logged
// and counted; it stays unmarked so the next run retries it. Run stops early
// only when ctx is cancelled.
func (u *Uploader) Run(ctx context.Context) (*Stats, error) {
	files, err := findExports(u.dir)
	if err != nil {
		return &u.stats, err
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return &u.stats, err
		}
		u.stats.FilesTotal++
		if err := u.processFile(ctx, f); err != nil {
			u.log.Warn("upload failed", "file", f, "error", err)
			u.stats.FilesErrored++
		}
	}
	return &u.stats, nil
}

func (u *Uploader) processFile(ctx context.Context, path string) error {
	relPath, _ := filepath.Rel(u.dir, path)
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}
	hash, err := HashFile(path)
	if err != nil {
		return fmt.Errorf("hash: %w", err)
	}

	uploaded, err := u.state.IsUploaded(relPath, info.Size(), hash)
	if err != nil {
		return fmt.Errorf("state check: %w", err)
	}
	if uploaded {
		u.stats.FilesSkipped++
		return nil
	}

	if u.dryRun {
		u.log.Info("would upload", "file", relPath, "bytes", info.Size())
		u.stats.FilesUploaded++
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	res, err := u.client.SendCSV(ctx, data)
	if err != nil {
		return err
	}

	u.stats.FilesUploaded++
	u.stats.SessionsReceived += res.SessionsReceived
	u.stats.SessionsSkipped += res.SessionsSkipped
	u.stats.WorkoutsInserted += res.WorkoutsInserted
	u.stats.SetsInserted += res.SetsInserted
	u.stats.RecordsSet += res.RecordsSet
	u.stats.CreatedExercises = append(u.stats.CreatedExercises, res.CreatedExercises...)
	u.log.Info("uploaded", "file", relPath, "workouts", res.WorkoutsInserted, "skipped", res.SessionsSkipped)

	if err := u.state.MarkUploaded(relPath, info.Size(), hash, res.WorkoutsInserted); err != nil {
		// The server skips sessions it already has, so a resend is harmless.
		u.log.Warn("recording upload failed", "file", relPath, "error", err)
	}
	return nil
}

// findExports returns every .csv file under dir, sorted by path.
func findExports(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".csv") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	slices.Sort(files)
	return files, nil
}
