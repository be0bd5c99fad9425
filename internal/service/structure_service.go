package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/versecraft/api/internal/client"
	"github.com/versecraft/api/internal/model"
	"github.com/versecraft/api/internal/store"
)

// LLMClient is the subset of the Groq client the services depend on
type LLMClient interface {
	ChatCompletion(ctx context.Context, system, user string) (string, error)
	TranscribeAudio(ctx context.Context, filePath string) (string, error)
	IsConfigured() bool
}

var _ LLMClient = (*client.GroqClient)(nil)

// StructureService derives verse ranges and song-section layouts for a
// chapter via the LLM, caching results by natural key so repeated
// requests for the same chapter reuse the same layout.
type StructureService struct {
	llm   LLMClient
	store store.SongStore
}

func NewStructureService(llm LLMClient, songStore store.SongStore) *StructureService {
	return &StructureService{
		llm:   llm,
		store: songStore,
	}
}

// GenerateStructure returns the cached structure for (book, chapter,
// name) or derives a new one. Verse ranges are validated to partition
// 1..N before anything is persisted.
func (s *StructureService) GenerateStructure(ctx context.Context, req *model.StructureGenerateRequest) (*model.SongStructure, error) {
	cached, err := s.store.GetStructure(ctx, req.BookName, req.Chapter, req.Name)
	if err == nil {
		return cached, nil
	}
	if err != store.ErrNotFound {
		return nil, fmt.Errorf("structure lookup failed: %w", err)
	}

	verseCount := req.VerseCount
	if verseCount == 0 {
		verseCount, err = s.store.VerseCount(ctx, req.BookName, req.Chapter)
		if err != nil {
			return nil, fmt.Errorf("verse count lookup failed: %w", err)
		}
	}
	if verseCount == 0 {
		return nil, fmt.Errorf("no verses stored for %s %d", req.BookName, req.Chapter)
	}

	var structure *model.SongStructure
	if s.llm == nil || !s.llm.IsConfigured() {
		structure = s.generateMock(req, verseCount)
	} else {
		structure, err = s.generateWithLLM(ctx, req, verseCount)
		if err != nil {
			return nil, err
		}
	}

	if err := model.ValidateRanges(structure.Ranges, verseCount); err != nil {
		return nil, fmt.Errorf("invalid structure for %s %d: %w", req.BookName, req.Chapter, err)
	}

	if err := s.store.SaveStructure(ctx, structure); err != nil {
		return nil, fmt.Errorf("failed to cache structure: %w", err)
	}

	return structure, nil
}

func (s *StructureService) generateWithLLM(ctx context.Context, req *model.StructureGenerateRequest, verseCount int) (*model.SongStructure, error) {
	systemPrompt := `You are a worship-music arranger. You divide Bible chapters into verse ranges
and map them onto song sections. Always output your response as valid JSON in the exact
format requested. Do not include any text outside the JSON structure.`

	userPrompt := fmt.Sprintf(`Divide %s chapter %d (%d verses) into consecutive verse ranges that
cover every verse exactly once, then assign each range to a song section.
Allowed section types: intro, verse, chorus, bridge, outro.
A chorus should use the most memorable, repeatable verse range.

Output as JSON:
{"ranges": [{"start":1,"end":4}, {"start":5,"end":8}],
 "sections": [{"type":"verse","range":{"start":1,"end":4}}, {"type":"chorus","range":{"start":5,"end":8}}]}`,
		req.BookName, req.Chapter, verseCount)

	resp, err := s.llm.ChatCompletion(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("structure generation failed: %w", err)
	}

	structure, err := s.parseStructureResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to parse structure response: %w", err)
	}

	structure.BookName = req.BookName
	structure.Chapter = req.Chapter
	structure.Name = req.Name
	return structure, nil
}

func (s *StructureService) parseStructureResponse(response string) (*model.SongStructure, error) {
	response = extractJSON(response)

	var result struct {
		Ranges   []model.VerseRange `json:"ranges"`
		Sections []model.Section    `json:"sections"`
	}
	if err := json.Unmarshal([]byte(response), &result); err != nil {
		return nil, fmt.Errorf("invalid JSON response: %w", err)
	}
	if len(result.Ranges) == 0 || len(result.Sections) == 0 {
		return nil, fmt.Errorf("no ranges or sections in response")
	}

	for _, sec := range result.Sections {
		if !validSectionType(sec.Type) {
			log.Printf("Unknown section type %q in structure response, keeping as-is", sec.Type)
		}
	}

	return &model.SongStructure{
		Ranges:   result.Ranges,
		Sections: result.Sections,
	}, nil
}

// generateMock splits the chapter into four-verse ranges alternating
// verse and chorus sections, for development without an API key.
func (s *StructureService) generateMock(req *model.StructureGenerateRequest, verseCount int) *model.SongStructure {
	var ranges []model.VerseRange
	for start := 1; start <= verseCount; start += 4 {
		end := start + 3
		if end > verseCount {
			end = verseCount
		}
		ranges = append(ranges, model.VerseRange{Start: start, End: end})
	}

	sections := make([]model.Section, 0, len(ranges))
	for i, r := range ranges {
		sectionType := model.SectionVerse
		if i%2 == 1 {
			sectionType = model.SectionChorus
		}
		sections = append(sections, model.Section{Type: sectionType, Range: r})
	}

	return &model.SongStructure{
		BookName: req.BookName,
		Chapter:  req.Chapter,
		Name:     req.Name,
		Ranges:   ranges,
		Sections: sections,
	}
}

func validSectionType(t model.SectionType) bool {
	for _, v := range model.ValidSectionTypes {
		if v == t {
			return true
		}
	}
	return false
}

// extractJSON attempts to extract JSON from a response that may contain extra text
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")

	if start != -1 && end != -1 && end > start {
		return s[start : end+1]
	}
	return s
}
