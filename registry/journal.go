package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/unkn0wn-root/framecache"
)

// Record is one journal entry: a cache file created by a persister.
type Record struct {
	Path      string    `msgpack:"p"`
	Hash      []byte    `msgpack:"h"`
	Size      int64     `msgpack:"s"`
	CreatedAt time.Time `msgpack:"t"`
}

// Journal is an append-only on-disk registry: each created file becomes
// one msgpack record. A disk manager replays the journal on startup to
// rebuild its picture of the cache directory.
type Journal struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

var _ Registry = (*Journal)(nil)

// OpenJournal opens (creating if absent) the journal at path.
func OpenJournal(path string) (*Journal, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("registry: open journal: %w", err)
	}
	return &Journal{path: path, f: f}, nil
}

func (j *Journal) CreatedFile(_ context.Context, path string, hash framecache.Hash, size int64) error {
	rec := Record{
		Path:      path,
		Hash:      hash[:],
		Size:      size,
		CreatedAt: time.Now().UTC(),
	}
	b, err := msgpack.Marshal(rec)
	if err != nil {
		return fmt.Errorf("registry: encode record: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.f == nil {
		return errors.New("registry: journal closed")
	}
	if _, err := j.f.Write(b); err != nil {
		return fmt.Errorf("registry: append record: %w", err)
	}
	return nil
}

// Replay reads every record appended so far, oldest first.
func (j *Journal) Replay(ctx context.Context) ([]Record, error) {
	j.mu.Lock()
	path := j.path
	j.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("registry: open journal for replay: %w", err)
	}
	defer f.Close()

	dec := msgpack.NewDecoder(f)
	var out []Record
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, fmt.Errorf("registry: decode record %d: %w", len(out), err)
		}
		out = append(out, rec)
	}
}

// Close syncs and closes the journal file. Further appends fail.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.f == nil {
		return nil
	}
	err := j.f.Sync()
	if cerr := j.f.Close(); err == nil {
		err = cerr
	}
	j.f = nil
	return err
}
