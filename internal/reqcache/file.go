package reqcache

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gofrs/flock"
)

// FileLockTimeout bounds how long writers wait for the session directory
// lock. Past it they proceed unlocked so a stuck process never hangs the CLI.
const FileLockTimeout = 100 * time.Millisecond

const entrySuffix = ".entry"

// FileStorage keeps one file per key inside a session directory. File names
// are the xxhash of the key; the key itself is the first line of the file so
// Keys can list them and hash collisions read as misses.
type FileStorage struct {
	dir string
}

// NewFileStorage creates the session directory if needed.
func NewFileStorage(dir string) (*FileStorage, error) {
	if dir == "" {
		return nil, errors.New("file storage directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}
	return &FileStorage{dir: dir}, nil
}

// Dir returns the session directory.
func (f *FileStorage) Dir() string {
	return f.dir
}

func (f *FileStorage) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cache file: %w", err)
	}
	stored, value, ok := bytes.Cut(data, []byte{'\n'})
	if !ok || string(stored) != key {
		return nil, nil
	}
	return value, nil
}

func (f *FileStorage) Set(ctx context.Context, key string, value []byte) error {
	if strings.ContainsRune(key, '\n') {
		return fmt.Errorf("cache key contains a newline")
	}
	unlock, err := f.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	target := f.path(key)
	tmp, err := os.CreateTemp(f.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	tmpName := tmp.Name()

	_, werr := tmp.WriteString(key + "\n")
	if werr == nil {
		_, werr = tmp.Write(value)
	}
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write cache file: %w", errors.Join(werr, cerr))
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename cache file: %w", err)
	}
	return nil
}

func (f *FileStorage) Delete(ctx context.Context, key string) error {
	unlock, err := f.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if err := os.Remove(f.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove cache file: %w", err)
	}
	return nil
}

func (f *FileStorage) Keys(_ context.Context, prefix string) ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list session directory: %w", err)
	}

	var keys []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), entrySuffix) {
			continue
		}
		key, err := readKeyLine(filepath.Join(f.dir, e.Name()))
		if err != nil {
			continue
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Close is a no-op for file storage.
func (f *FileStorage) Close() error {
	return nil
}

func (f *FileStorage) path(key string) string {
	return filepath.Join(f.dir, fmt.Sprintf("%016x%s", xxhash.Sum64String(key), entrySuffix))
}

// lock takes the directory lock, failing open on timeout.
func (f *FileStorage) lock(ctx context.Context) (func(), error) {
	fl := flock.New(filepath.Join(f.dir, ".lock"))

	lockCtx, cancel := context.WithTimeout(ctx, FileLockTimeout)
	defer cancel()

	locked, err := fl.TryLockContext(lockCtx, 10*time.Millisecond)
	if err != nil {
		if lockCtx.Err() == context.DeadlineExceeded {
			return func() {}, nil
		}
		return nil, fmt.Errorf("lock session directory: %w", err)
	}
	if !locked {
		return func() {}, nil
	}
	return func() { _ = fl.Unlock() }, nil
}

func readKeyLine(path string) (string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer fh.Close()

	line, err := bufio.NewReader(fh).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSuffix(line, "\n"), nil
}
