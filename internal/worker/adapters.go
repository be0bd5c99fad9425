package worker

import (
	"context"
	"fmt"
	"log"

	"github.com/versecraft/api/internal/client"
	"github.com/versecraft/api/internal/model"
	"github.com/versecraft/api/internal/service"
	"github.com/versecraft/api/internal/store"
)

// generatorAdapter implements workflow.Generator on top of the leaf
// services: structure lookup/derivation, lyric assembly, and the studio
// driver. When the studio returns a progress id the assembled lyrics
// are persisted under it for later review correlation.
type generatorAdapter struct {
	structures *service.StructureService
	lyrics     *service.LyricsService
	studio     client.StudioDriver
	store      store.SongStore
}

func (a *generatorAdapter) Generate(ctx context.Context, req *model.SongRequest) (*model.GenerationResult, error) {
	limit, err := model.ParseVerseRange(req.VerseRange)
	if err != nil {
		return nil, fmt.Errorf("invalid verse range: %w", err)
	}

	structureName := req.StructureID
	if structureName == "" {
		structureName = "default"
	}
	structure, err := a.structures.GenerateStructure(ctx, &model.StructureGenerateRequest{
		BookName: req.BookName,
		Chapter:  req.Chapter,
		Name:     structureName,
	})
	if err != nil {
		return nil, fmt.Errorf("structure: %w", err)
	}

	blocks, err := a.lyrics.Assemble(ctx, structure, limit)
	if err != nil {
		return nil, fmt.Errorf("lyrics: %w", err)
	}
	prompt := service.BuildPrompt(blocks)

	result, err := a.studio.GenerateSong(ctx, &client.GenerateSongRequest{
		Lyrics: prompt,
		Style:  req.Style,
		Title:  req.Title,
	})
	if err != nil {
		return nil, err
	}

	if result.Success && result.ProgressID != "" {
		if err := a.store.SaveLyrics(ctx, result.ProgressID, prompt); err != nil {
			// Review degrades without stored lyrics but the generation
			// itself already happened; do not fail the attempt.
			log.Printf("Failed to store lyrics for progress_id %s: %v", result.ProgressID, err)
		}
	}

	return result, nil
}

// downloaderAdapter implements workflow.Downloader over the studio
// driver sidecar
type downloaderAdapter struct {
	studio client.StudioDriver
}

func (a *downloaderAdapter) Download(ctx context.Context, title string, slot model.DownloadSlot) (*model.DownloadedSong, error) {
	path, err := a.studio.DownloadSong(ctx, title, slot)
	if err != nil {
		return nil, err
	}
	return &model.DownloadedSong{
		FilePath: path,
		Slot:     slot,
		Title:    title,
		State:    model.FileStatePending,
	}, nil
}
