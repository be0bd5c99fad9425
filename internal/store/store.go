package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/versecraft/api/internal/model"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("not found")

// Verse is one scripture verse
type Verse struct {
	Number int
	Text   string
}

// SongStore persists scripture text, cached song structures and the
// lyrics used for each generation (keyed by progress id).
type SongStore interface {
	VerseCount(ctx context.Context, book string, chapter int) (int, error)
	VersesInRange(ctx context.Context, book string, chapter int, r model.VerseRange) ([]Verse, error)
	GetStructure(ctx context.Context, book string, chapter int, name string) (*model.SongStructure, error)
	SaveStructure(ctx context.Context, s *model.SongStructure) error
	SaveLyrics(ctx context.Context, progressID, lyrics string) error
	GetLyrics(ctx context.Context, progressID string) (string, error)
}

// Store is a SQLite implementation of SongStore
type Store struct {
	db *sql.DB
}

var _ SongStore = (*Store)(nil)

// New opens (or creates) the SQLite database at dbPath
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store := &Store{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS verses (
			book TEXT NOT NULL,
			chapter INTEGER NOT NULL,
			verse INTEGER NOT NULL,
			text TEXT NOT NULL,
			PRIMARY KEY (book, chapter, verse)
		)`,
		`CREATE TABLE IF NOT EXISTS song_structures (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			book TEXT NOT NULL,
			chapter INTEGER NOT NULL,
			name TEXT NOT NULL,
			payload TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			UNIQUE (book, chapter, name)
		)`,
		`CREATE TABLE IF NOT EXISTS generation_lyrics (
			progress_id TEXT PRIMARY KEY,
			lyrics TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_verses_chapter ON verses(book, chapter)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// VerseCount returns the number of verses stored for a chapter
func (s *Store) VerseCount(ctx context.Context, book string, chapter int) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM verses WHERE book = ? AND chapter = ?`, book, chapter,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count verses: %w", err)
	}
	return count, nil
}

// VersesInRange returns the verses of a chapter within an inclusive range,
// ordered by verse number.
func (s *Store) VersesInRange(ctx context.Context, book string, chapter int, r model.VerseRange) ([]Verse, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT verse, text FROM verses
		 WHERE book = ? AND chapter = ? AND verse BETWEEN ? AND ?
		 ORDER BY verse`, book, chapter, r.Start, r.End)
	if err != nil {
		return nil, fmt.Errorf("failed to query verses: %w", err)
	}
	defer rows.Close()

	var verses []Verse
	for rows.Next() {
		var v Verse
		if err := rows.Scan(&v.Number, &v.Text); err != nil {
			return nil, fmt.Errorf("failed to scan verse: %w", err)
		}
		verses = append(verses, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return verses, nil
}

// InsertVerse stores one verse (used by the text loader and tests)
func (s *Store) InsertVerse(ctx context.Context, book string, chapter, verse int, text string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO verses (book, chapter, verse, text) VALUES (?, ?, ?, ?)`,
		book, chapter, verse, text)
	if err != nil {
		return fmt.Errorf("failed to insert verse: %w", err)
	}
	return nil
}

// GetStructure looks up a cached structure by its natural key
func (s *Store) GetStructure(ctx context.Context, book string, chapter int, name string) (*model.SongStructure, error) {
	var id int64
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, payload FROM song_structures WHERE book = ? AND chapter = ? AND name = ?`,
		book, chapter, name,
	).Scan(&id, &payload)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query structure: %w", err)
	}

	var structure model.SongStructure
	if err := json.Unmarshal([]byte(payload), &structure); err != nil {
		return nil, fmt.Errorf("failed to unmarshal structure payload: %w", err)
	}
	structure.ID = id
	return &structure, nil
}

// SaveStructure caches a structure under its natural key
func (s *Store) SaveStructure(ctx context.Context, structure *model.SongStructure) error {
	payload, err := json.Marshal(structure)
	if err != nil {
		return fmt.Errorf("failed to marshal structure: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO song_structures (book, chapter, name, payload, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (book, chapter, name) DO UPDATE SET payload = excluded.payload`,
		structure.BookName, structure.Chapter, structure.Name, string(payload), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save structure: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil && id > 0 {
		structure.ID = id
	}
	return nil
}

// SaveLyrics stores the lyrics used for a generation under its progress id
func (s *Store) SaveLyrics(ctx context.Context, progressID, lyrics string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO generation_lyrics (progress_id, lyrics, created_at) VALUES (?, ?, ?)`,
		progressID, lyrics, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save lyrics: %w", err)
	}
	return nil
}

// GetLyrics returns the lyrics recorded for a progress id
func (s *Store) GetLyrics(ctx context.Context, progressID string) (string, error) {
	var lyrics string
	err := s.db.QueryRowContext(ctx,
		`SELECT lyrics FROM generation_lyrics WHERE progress_id = ?`, progressID,
	).Scan(&lyrics)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query lyrics: %w", err)
	}
	return lyrics, nil
}
