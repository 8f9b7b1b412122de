package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"meterflow/internal/model"
)

// FileStore persists consolidated series as JSON files in a directory,
// one file per (meter, data kind) key. It survives restarts without
// needing a database, which is what a single-household deployment wants.
type FileStore struct {
	dir string

	// mu guards the directory: file writes are not atomic with respect
	// to concurrent reads of the same key.
	mu sync.RWMutex
}

// NewFileStore opens (and if needed creates) the storage directory.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// fileEntry is the on-disk shape. MeterID and Kind are stored redundantly
// with the filename so entries stay self-describing and wildcard deletes
// do not have to parse names.
type fileEntry struct {
	MeterID string         `json:"meter_id"`
	Kind    model.DataKind `json:"data_kind"`
	Series  model.Series   `json:"series"`
}

// path derives a stable filename from the key. Meter IDs come from an
// external system and are hashed rather than trusted as path components.
func (f *FileStore) path(meterID string, kind model.DataKind) string {
	sum := sha256.Sum256([]byte(meterID + ":" + string(kind)))
	return filepath.Join(f.dir, hex.EncodeToString(sum[:8])+".json")
}

func (f *FileStore) Load(_ context.Context, meterID string, kind model.DataKind) (model.Series, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	raw, err := os.ReadFile(f.path(meterID, kind))
	if os.IsNotExist(err) {
		return model.Series{}, false, nil
	}
	if err != nil {
		return model.Series{}, false, err
	}
	var e fileEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return model.Series{}, false, fmt.Errorf("decoding cached series: %w", err)
	}
	return e.Series, true, nil
}

func (f *FileStore) Save(_ context.Context, s model.Series) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, err := json.Marshal(fileEntry{MeterID: s.MeterID, Kind: s.Kind, Series: s})
	if err != nil {
		return err
	}
	path := f.path(s.MeterID, s.Kind)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (f *FileStore) Delete(_ context.Context, meterID string, kind model.DataKind) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return err
	}
	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		path := filepath.Join(f.dir, de.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		var e fileEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			continue
		}
		if meterID != "" && e.MeterID != meterID {
			continue
		}
		if kind != "" && e.Kind != kind {
			continue
		}
		if err := os.Remove(path); err != nil {
			return err
		}
	}
	return nil
}
