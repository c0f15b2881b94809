// Package contents loads the named text blobs a session is configured from:
// learner profiles and tutoring modules. Blobs are read eagerly at
// construction and never change afterwards.
package contents

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Store is a read-only collection of named text blobs.
type Store struct {
	blobs map[string]string
}

// NewStore returns a Store preloaded with the supplied blobs.
func NewStore(blobs map[string]string) *Store {
	copied := make(map[string]string, len(blobs))
	for id, text := range blobs {
		copied[id] = strings.TrimSpace(text)
	}
	return &Store{blobs: copied}
}

// LoadDir eagerly reads every .txt file in dir into a Store, addressable by
// file stem. A missing directory yields an empty store, not an error; the
// session works without preloaded content.
func LoadDir(dir string) (*Store, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return NewStore(nil), nil
		}
		return nil, fmt.Errorf("failed to read content directory: %w", err)
	}

	blobs := map[string]string{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read content file %q: %w", entry.Name(), err)
		}
		blobs[strings.TrimSuffix(entry.Name(), ".txt")] = string(data)
	}

	return NewStore(blobs), nil
}

// Get returns the blob stored under id.
func (s *Store) Get(id string) (string, bool) {
	text, ok := s.blobs[id]
	return text, ok
}

// IDs returns the stored identifiers in sorted order.
func (s *Store) IDs() []string {
	ids := make([]string, 0, len(s.blobs))
	for id := range s.blobs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
