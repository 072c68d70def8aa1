// Package storage writes fetch results and raw timeline payloads to
// timestamped JSON files.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"twitfetch/internal/domain"
)

const fileTimeLayout = "2006-01-02T15-04-05"

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// JSONStore writes files under a single directory.
type JSONStore struct {
	dir string
	now func() time.Time
}

// NewJSONStore creates the directory if needed.
func NewJSONStore(dir string) (*JSONStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage: empty directory")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create dump dir: %w", err)
	}
	return &JSONStore{dir: dir, now: time.Now}, nil
}

// Dir returns the directory files are written to.
func (s *JSONStore) Dir() string {
	return s.dir
}

// SavePosts writes posts as an indented JSON array and returns the path.
func (s *JSONStore) SavePosts(target domain.Target, posts []domain.Post) (string, error) {
	if posts == nil {
		posts = []domain.Post{}
	}
	return s.write(target, "posts", posts)
}

// SavePayloads writes raw payloads as a JSON array of their original
// documents and returns the path. Invalid payloads are rejected.
func (s *JSONStore) SavePayloads(target domain.Target, payloads [][]byte) (string, error) {
	raw := make([]json.RawMessage, 0, len(payloads))
	for i, p := range payloads {
		if !json.Valid(p) {
			return "", fmt.Errorf("payload %d is not valid JSON", i)
		}
		raw = append(raw, json.RawMessage(p))
	}
	return s.write(target, "raw", raw)
}

func (s *JSONStore) write(target domain.Target, kind string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s: %w", kind, err)
	}

	path := filepath.Join(s.dir, s.filename(target, kind))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", kind, err)
	}
	return path, nil
}

// filename: {kind}_{targetkind}_{id}_{timestamp}.json
func (s *JSONStore) filename(target domain.Target, kind string) string {
	id := unsafeChars.ReplaceAllString(target.ID, "_")
	return fmt.Sprintf("%s_%s_%s_%s.json", kind, target.Kind, id, s.now().UTC().Format(fileTimeLayout))
}

// Latest returns the most recent posts file for target, if any.
func (s *JSONStore) Latest(target domain.Target) (string, error) {
	prefix := fmt.Sprintf("posts_%s_%s_", target.Kind, unsafeChars.ReplaceAllString(target.ID, "_"))
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return "", fmt.Errorf("failed to read dump dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), prefix) && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", os.ErrNotExist
	}
	sort.Strings(names)
	return filepath.Join(s.dir, names[len(names)-1]), nil
}

// LoadPosts reads a posts file written by SavePosts.
func LoadPosts(path string) ([]domain.Post, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read posts: %w", err)
	}
	var posts []domain.Post
	if err := json.Unmarshal(data, &posts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal posts: %w", err)
	}
	return posts, nil
}
