package service

import (
	"context"
	"fmt"

	"github.com/versecraft/api/internal/model"
	"github.com/versecraft/api/internal/store"
)

// fakeStore is an in-memory SongStore for service tests
type fakeStore struct {
	verses     map[string]map[int]string // "book/chapter" -> verse -> text
	structures map[string]*model.SongStructure
	lyrics     map[string]string
	saveCalls  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		verses:     make(map[string]map[int]string),
		structures: make(map[string]*model.SongStructure),
		lyrics:     make(map[string]string),
	}
}

func chapterKey(book string, chapter int) string {
	return fmt.Sprintf("%s/%d", book, chapter)
}

func structureKey(book string, chapter int, name string) string {
	return fmt.Sprintf("%s/%d/%s", book, chapter, name)
}

func (f *fakeStore) addChapter(book string, chapter, verseCount int) {
	key := chapterKey(book, chapter)
	f.verses[key] = make(map[int]string)
	for v := 1; v <= verseCount; v++ {
		f.verses[key][v] = fmt.Sprintf("%s %d:%d text", book, chapter, v)
	}
}

func (f *fakeStore) VerseCount(ctx context.Context, book string, chapter int) (int, error) {
	return len(f.verses[chapterKey(book, chapter)]), nil
}

func (f *fakeStore) VersesInRange(ctx context.Context, book string, chapter int, r model.VerseRange) ([]store.Verse, error) {
	texts := f.verses[chapterKey(book, chapter)]
	var verses []store.Verse
	for v := r.Start; v <= r.End; v++ {
		if text, ok := texts[v]; ok {
			verses = append(verses, store.Verse{Number: v, Text: text})
		}
	}
	return verses, nil
}

func (f *fakeStore) GetStructure(ctx context.Context, book string, chapter int, name string) (*model.SongStructure, error) {
	s, ok := f.structures[structureKey(book, chapter, name)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) SaveStructure(ctx context.Context, s *model.SongStructure) error {
	f.saveCalls++
	f.structures[structureKey(s.BookName, s.Chapter, s.Name)] = s
	return nil
}

func (f *fakeStore) SaveLyrics(ctx context.Context, progressID, lyrics string) error {
	f.lyrics[progressID] = lyrics
	return nil
}

func (f *fakeStore) GetLyrics(ctx context.Context, progressID string) (string, error) {
	lyrics, ok := f.lyrics[progressID]
	if !ok {
		return "", store.ErrNotFound
	}
	return lyrics, nil
}

// fakeLLM returns canned chat responses in order
type fakeLLM struct {
	chatCalls       int
	transcribeCalls int
	chatResponses   []string
	transcript      string
	chatErr         error
	transcribeErr   error
	configured      bool
}

func (f *fakeLLM) ChatCompletion(ctx context.Context, system, user string) (string, error) {
	f.chatCalls++
	if f.chatErr != nil {
		return "", f.chatErr
	}
	idx := f.chatCalls - 1
	if idx >= len(f.chatResponses) {
		idx = len(f.chatResponses) - 1
	}
	if idx < 0 {
		return "", nil
	}
	return f.chatResponses[idx], nil
}

func (f *fakeLLM) TranscribeAudio(ctx context.Context, filePath string) (string, error) {
	f.transcribeCalls++
	if f.transcribeErr != nil {
		return "", f.transcribeErr
	}
	if f.transcript == "" {
		return "transcribed audio", nil
	}
	return f.transcript, nil
}

func (f *fakeLLM) IsConfigured() bool {
	return f.configured
}
