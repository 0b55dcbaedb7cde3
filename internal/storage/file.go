package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileBackend keeps each stream in <dir>/<stream>.json.
type FileBackend struct {
	dir string
}

func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{dir: dir}
}

func (b *FileBackend) Name() string { return "file" }

func (b *FileBackend) path(stream Stream) string {
	return filepath.Join(b.dir, string(stream)+".json")
}

func (b *FileBackend) Read(_ context.Context, stream Stream) ([]byte, bool, error) {
	payload, err := os.ReadFile(b.path(stream))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

// Write stages every document in a temp file first and only then renames
// them into place one by one. A failure while staging leaves every old file;
// a failed rename leaves only the later streams untouched.
func (b *FileBackend) Write(ctx context.Context, docs []Document) error {
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	staged := make(map[Stream]string, len(docs))
	cleanup := func() {
		for _, tmp := range staged {
			_ = os.Remove(tmp)
		}
	}

	for _, doc := range docs {
		tmp, err := os.CreateTemp(b.dir, string(doc.Stream)+"-*.tmp")
		if err != nil {
			cleanup()
			return fmt.Errorf("stage %s: %w", doc.Stream, err)
		}
		staged[doc.Stream] = tmp.Name()
		if _, err := tmp.Write(doc.Payload); err != nil {
			_ = tmp.Close()
			cleanup()
			return fmt.Errorf("write %s: %w", doc.Stream, err)
		}
		if err := tmp.Close(); err != nil {
			cleanup()
			return fmt.Errorf("close %s: %w", doc.Stream, err)
		}
	}

	if err := ctx.Err(); err != nil {
		cleanup()
		return err
	}

	for _, doc := range docs {
		if err := os.Rename(staged[doc.Stream], b.path(doc.Stream)); err != nil {
			cleanup()
			return fmt.Errorf("replace %s: %w", doc.Stream, err)
		}
		delete(staged, doc.Stream)
	}
	return nil
}
