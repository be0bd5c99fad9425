package model

import "fmt"

// VerseRange is an inclusive span of verses within one chapter
type VerseRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (r VerseRange) String() string {
	if r.Start == r.End {
		return fmt.Sprintf("%d", r.Start)
	}
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// ParseVerseRange parses "3" or "3-9" into a VerseRange
func ParseVerseRange(s string) (VerseRange, error) {
	var r VerseRange
	if _, err := fmt.Sscanf(s, "%d-%d", &r.Start, &r.End); err == nil {
		if r.End < r.Start {
			return VerseRange{}, fmt.Errorf("invalid verse range %q", s)
		}
		return r, nil
	}
	if _, err := fmt.Sscanf(s, "%d", &r.Start); err == nil {
		r.End = r.Start
		return r, nil
	}
	return VerseRange{}, fmt.Errorf("invalid verse range %q", s)
}

// Overlaps reports whether two ranges share any verse
func (r VerseRange) Overlaps(other VerseRange) bool {
	return r.Start <= other.End && other.Start <= r.End
}

// Clip bounds a range to the given limit; the second return is false
// when nothing remains.
func (r VerseRange) Clip(limit VerseRange) (VerseRange, bool) {
	if !r.Overlaps(limit) {
		return VerseRange{}, false
	}
	clipped := r
	if clipped.Start < limit.Start {
		clipped.Start = limit.Start
	}
	if clipped.End > limit.End {
		clipped.End = limit.End
	}
	return clipped, true
}

// Section maps one song section to a verse range
type Section struct {
	Type  SectionType `json:"type"`
	Range VerseRange  `json:"range"`
}

// SongStructure is the LLM-derived section layout for a chapter. It is
// cached by its natural key (book, chapter, name) so repeated requests
// reuse the same layout.
type SongStructure struct {
	ID       int64        `json:"id,omitempty"`
	BookName string       `json:"bookName"`
	Chapter  int          `json:"chapter"`
	Name     string       `json:"name"`
	Sections []Section    `json:"sections"`
	Ranges   []VerseRange `json:"ranges"`
}

// ValidateRanges checks that ranges partition 1..verseCount with no gaps
// or overlaps.
func ValidateRanges(ranges []VerseRange, verseCount int) error {
	if len(ranges) == 0 {
		return fmt.Errorf("no verse ranges")
	}
	next := 1
	for _, r := range ranges {
		if r.Start != next {
			return fmt.Errorf("verse ranges must partition 1..%d: expected range to start at %d, got %d", verseCount, next, r.Start)
		}
		if r.End < r.Start {
			return fmt.Errorf("invalid verse range %s", r)
		}
		next = r.End + 1
	}
	if next != verseCount+1 {
		return fmt.Errorf("verse ranges must partition 1..%d: last range ends at %d", verseCount, next-1)
	}
	return nil
}

// LyricBlock is one section's worth of concrete verse text, tagged for
// the studio prompt (e.g. "[Verse]").
type LyricBlock struct {
	Section SectionType `json:"section"`
	Range   VerseRange  `json:"range"`
	Lines   []string    `json:"lines"`
}
