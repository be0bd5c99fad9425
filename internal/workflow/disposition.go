package workflow

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// FailsafeSuffix marks salvaged files in the approved directory so
// downstream consumers can tell AI-approved output from fail-safe
// backups.
const FailsafeSuffix = "_failsafe"

// DispositionOutcome describes what happened to a file
type DispositionOutcome string

const (
	DispositionMoved    DispositionOutcome = "moved"
	DispositionDeleted  DispositionOutcome = "deleted"
	DispositionNotFound DispositionOutcome = "not-found"
)

// DispositionResult is the outcome of one file operation. A missing
// source file is reported as DispositionNotFound, never as an error: a
// prior partial failure may already have removed it.
type DispositionResult struct {
	Outcome DispositionOutcome
	Path    string // destination path when moved
}

// Archiver uploads kept songs to object storage as a secondary copy
type Archiver interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

// Disposer owns all file lifecycle operations between the pending
// (temp-holding) and approved directories. Moves are atomic renames, so
// both directories must live on the same volume.
type Disposer struct {
	pendingDir  string
	approvedDir string
	archiver    Archiver // optional
}

// NewDisposer creates both directories if absent
func NewDisposer(pendingDir, approvedDir string, archiver Archiver) (*Disposer, error) {
	for _, dir := range []string{pendingDir, approvedDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return &Disposer{
		pendingDir:  pendingDir,
		approvedDir: approvedDir,
		archiver:    archiver,
	}, nil
}

// PendingDir returns the temp-holding directory
func (d *Disposer) PendingDir() string { return d.pendingDir }

// ApprovedDir returns the final directory
func (d *Disposer) ApprovedDir() string { return d.approvedDir }

// Keep moves an approved file from pending to the approved directory,
// preserving its filename, and archives it when an archiver is
// configured.
func (d *Disposer) Keep(ctx context.Context, path string) (DispositionResult, error) {
	dest := filepath.Join(d.approvedDir, filepath.Base(path))
	return d.move(ctx, path, dest, true)
}

// Discard deletes a rejected file from the pending directory
func (d *Disposer) Discard(path string) (DispositionResult, error) {
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			log.Printf("[Disposer] discard: %s already gone", path)
			return DispositionResult{Outcome: DispositionNotFound}, nil
		}
		return DispositionResult{}, fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return DispositionResult{Outcome: DispositionDeleted}, nil
}

// Failsafe moves a file to the approved directory with the fail-safe
// marker appended to the filename stem, so attempt-3 work is never
// silently lost even when review rejected it.
func (d *Disposer) Failsafe(ctx context.Context, path string) (DispositionResult, error) {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	dest := filepath.Join(d.approvedDir, stem+FailsafeSuffix+ext)
	return d.move(ctx, path, dest, false)
}

func (d *Disposer) move(ctx context.Context, src, dest string, archive bool) (DispositionResult, error) {
	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			log.Printf("[Disposer] move: %s does not exist", src)
			return DispositionResult{Outcome: DispositionNotFound}, nil
		}
		return DispositionResult{}, fmt.Errorf("failed to stat %s: %w", src, err)
	}

	if err := os.Rename(src, dest); err != nil {
		return DispositionResult{}, fmt.Errorf("failed to move %s to %s: %w", src, dest, err)
	}

	if archive && d.archiver != nil {
		d.archiveFile(ctx, dest)
	}

	return DispositionResult{Outcome: DispositionMoved, Path: dest}, nil
}

// archiveFile uploads a kept song as a secondary copy. Archive failures
// are logged, not fatal: the local approved copy is authoritative.
func (d *Disposer) archiveFile(ctx context.Context, path string) {
	file, err := os.Open(path)
	if err != nil {
		log.Printf("[Disposer] archive: failed to open %s: %v", path, err)
		return
	}
	defer file.Close()

	key := "approved/" + filepath.Base(path)
	if _, err := d.archiver.Upload(ctx, key, file, "audio/mpeg"); err != nil {
		log.Printf("[Disposer] archive: upload of %s failed: %v", path, err)
		return
	}
	log.Printf("[Disposer] archived %s", key)
}
