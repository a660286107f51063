package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const tempPrefix = ".tmp-"

// IsTempName reports whether name is reserved for in-flight writes. Such
// files are hidden from List and Walk.
func IsTempName(name string) bool {
	return strings.HasPrefix(name, tempPrefix)
}

// LocalStore keeps content under a directory on disk.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &LocalStore{root: abs}, nil
}

func (s *LocalStore) resolve(p string) (string, string, error) {
	key, err := Normalize(p)
	if err != nil {
		return "", "", err
	}
	return key, filepath.Join(s.root, filepath.FromSlash(key)), nil
}

func notFound(key string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return err
}

// Save writes to a temp file next to the target and renames it into place,
// so readers see either the old object or the complete new one.
func (s *LocalStore) Save(ctx context.Context, p string, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, full, err := s.resolve(p)
	if err != nil {
		return err
	}
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, tempPrefix+"*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", p, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", p, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", p, err)
	}
	if err := os.Rename(tmpName, full); err != nil {
		return fmt.Errorf("rename into %s: %w", p, err)
	}
	return nil
}

func (s *LocalStore) Read(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, full, err := s.resolve(p)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, notFound(key, err)
	}
	return data, nil
}

func (s *LocalStore) Open(ctx context.Context, p string) (io.ReadCloser, ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, ObjectInfo{}, err
	}
	key, full, err := s.resolve(p)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	f, err := os.Open(full)
	if err != nil {
		return nil, ObjectInfo{}, notFound(key, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, ObjectInfo{}, err
	}
	if st.IsDir() {
		f.Close()
		return nil, ObjectInfo{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return f, ObjectInfo{Name: st.Name(), Size: st.Size(), ModTime: st.ModTime()}, nil
}

func (s *LocalStore) Exists(ctx context.Context, p string) (bool, error) {
	_, full, err := s.resolve(p)
	if err != nil {
		return false, err
	}
	st, err := os.Stat(full)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !st.IsDir(), nil
}

func (s *LocalStore) Delete(ctx context.Context, p string) error {
	key, full, err := s.resolve(p)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		return notFound(key, err)
	}
	return nil
}

func (s *LocalStore) List(ctx context.Context, dir string) ([]ObjectInfo, error) {
	_, full, err := s.resolve(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(full)
	if errors.Is(err, fs.ErrNotExist) {
		return []ObjectInfo{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]ObjectInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || IsTempName(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, ObjectInfo{Name: e.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *LocalStore) Walk(ctx context.Context, dir string, fn func(p string, info ObjectInfo) error) error {
	key, full, err := s.resolve(dir)
	if err != nil {
		return err
	}
	err = filepath.WalkDir(full, func(fp string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || IsTempName(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(full, fp)
		if err != nil {
			return err
		}
		st, err := d.Info()
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		return fn(key+"/"+filepath.ToSlash(rel), ObjectInfo{Name: d.Name(), Size: st.Size(), ModTime: st.ModTime()})
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (s *LocalStore) DeleteDir(ctx context.Context, dir string) error {
	_, full, err := s.resolve(dir)
	if err != nil {
		return err
	}
	return os.RemoveAll(full)
}
