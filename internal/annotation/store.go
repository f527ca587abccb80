// Package annotation keeps the ordered list of text labels placed on the
// viewer image and persists it through a key-value collaborator.
package annotation

import (
	"fmt"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
)

// StorageKey is the key under which the label list is persisted.
const StorageKey = "cosmozoom-labels"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// KV is a synchronous string key-value store.
type KV interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)
	// Set overwrites the value for key.
	Set(key, value string) error
}

// Position is a normalized coordinate relative to the unscaled image box.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Label is a piece of text pinned to a position on the image.
type Label struct {
	Text     string   `json:"text"`
	Position Position `json:"position"`
}

// Store owns the label sequence. A label's identity is its index.
type Store struct {
	kv     KV
	labels []Label
	mu     sync.RWMutex
}

// New loads the persisted labels from kv. A missing key yields an empty store.
func New(kv KV) (*Store, error) {
	s := &Store{kv: kv, labels: []Label{}}

	raw, ok, err := kv.Get(StorageKey)
	if err != nil {
		return nil, fmt.Errorf("load labels: %w", err)
	}
	if !ok || raw == "" {
		return s, nil
	}

	if err := json.Unmarshal([]byte(raw), &s.labels); err != nil {
		return nil, fmt.Errorf("decode labels: %w", err)
	}
	if s.labels == nil {
		s.labels = []Label{}
	}

	return s, nil
}

// List returns a snapshot of the labels in order.
func (s *Store) List() []Label {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Label, len(s.labels))
	copy(out, s.labels)
	return out
}

// Len returns the number of labels.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.labels)
}

// Add appends a label. Text is trimmed; empty text is ignored.
func (s *Store) Add(text string, pos Position) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.labels = append(s.labels, Label{Text: text, Position: pos})
	return s.save()
}

// Edit replaces the text of the label at index. Out-of-range indexes and
// empty text are ignored.
func (s *Store) Edit(index int, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.labels) {
		return nil
	}

	s.labels[index].Text = text
	return s.save()
}

// Delete removes the label at index and compacts the list. Out-of-range
// indexes are ignored.
func (s *Store) Delete(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.labels) {
		return nil
	}

	s.labels = append(s.labels[:index], s.labels[index+1:]...)
	return s.save()
}

// Clear removes every label.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.labels = []Label{}
	return s.save()
}

// save writes the full list. Callers hold the write lock.
func (s *Store) save() error {
	data, err := json.Marshal(s.labels)
	if err != nil {
		return fmt.Errorf("encode labels: %w", err)
	}

	if err := s.kv.Set(StorageKey, string(data)); err != nil {
		return fmt.Errorf("save labels: %w", err)
	}

	return nil
}
