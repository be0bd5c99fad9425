package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/versecraft/api/internal/model"
	"github.com/versecraft/api/internal/store"
)

// LyricsService assembles concrete verse text into ordered,
// section-tagged lyric blocks. It is deterministic: scripture text is
// looked up, never generated.
type LyricsService struct {
	store store.SongStore
}

func NewLyricsService(songStore store.SongStore) *LyricsService {
	return &LyricsService{store: songStore}
}

// Assemble resolves each structure section against the scripture store,
// clipped to limit. Sections entirely outside limit are skipped; a
// section whose verses are missing from the store is an error.
func (s *LyricsService) Assemble(ctx context.Context, structure *model.SongStructure, limit model.VerseRange) ([]model.LyricBlock, error) {
	var blocks []model.LyricBlock

	for _, section := range structure.Sections {
		clipped, ok := section.Range.Clip(limit)
		if !ok {
			continue
		}

		verses, err := s.store.VersesInRange(ctx, structure.BookName, structure.Chapter, clipped)
		if err != nil {
			return nil, fmt.Errorf("verse lookup failed for %s %d:%s: %w",
				structure.BookName, structure.Chapter, clipped, err)
		}
		if len(verses) != clipped.End-clipped.Start+1 {
			return nil, fmt.Errorf("missing verse text for %s %d:%s (have %d of %d)",
				structure.BookName, structure.Chapter, clipped, len(verses), clipped.End-clipped.Start+1)
		}

		lines := make([]string, 0, len(verses))
		for _, v := range verses {
			lines = append(lines, v.Text)
		}

		blocks = append(blocks, model.LyricBlock{
			Section: section.Type,
			Range:   clipped,
			Lines:   lines,
		})
	}

	if len(blocks) == 0 {
		return nil, fmt.Errorf("no structure sections overlap verses %s", limit)
	}

	return blocks, nil
}

// BuildPrompt renders lyric blocks into the tagged text the studio
// expects, e.g. "[Verse]\n...\n\n[Chorus]\n...".
func BuildPrompt(blocks []model.LyricBlock) string {
	var b strings.Builder
	for i, block := range blocks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(sectionTag(block.Section))
		b.WriteString("\n")
		b.WriteString(strings.Join(block.Lines, "\n"))
	}
	return b.String()
}

func sectionTag(t model.SectionType) string {
	name := string(t)
	if name == "" {
		return "[Verse]"
	}
	return "[" + strings.ToUpper(name[:1]) + name[1:] + "]"
}
