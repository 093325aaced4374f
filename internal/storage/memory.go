package storage

import (
	"bytes"
	"context"
	"io"
	"strconv"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// MemoryRootID is the id of the pre-created root container of a MemoryStore.
const MemoryRootID = "root"

type memFolder struct {
	id     string
	name   string
	parent string
}

type memFile struct {
	meta    File
	content []byte
	parent  string
	public  bool
}

// MemoryStore is an in-memory Store used by tests and local development.
// It implements the Counter and RangeReader capabilities and is safe for
// concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	folders map[string]*memFolder
	files   map[string]*memFile
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		folders: make(map[string]*memFolder),
		files:   make(map[string]*memFile),
		now:     time.Now,
	}
	s.folders[MemoryRootID] = &memFolder{id: MemoryRootID, name: MemoryRootID}
	return s
}

func (s *MemoryStore) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.folders[id] = &memFolder{id: id, name: name, parent: parentID}
	return id, nil
}

func (s *MemoryStore) FindFolder(ctx context.Context, name, parentID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, f := range s.folders {
		if f.parent == parentID && f.name == name {
			return f.id, nil
		}
	}
	return "", nil
}

func (s *MemoryStore) ListFolders(ctx context.Context, parentID string) ([]*File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*File
	for _, f := range s.folders {
		if f.parent == parentID {
			out = append(out, &File{ID: f.id, Name: f.name})
		}
	}
	return out, nil
}

func (s *MemoryStore) CreateFile(ctx context.Context, name, parentID, mimeType string, properties map[string]string, content io.Reader) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}

	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}

	props := make(map[string]string, len(properties))
	for k, v := range properties {
		props[k] = v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[id] = &memFile{
		meta: File{
			ID:         id,
			Name:       name,
			MIMEType:   mimeType,
			Size:       int64(len(data)),
			Properties: props,
			CreatedAt:  s.now(),
		},
		content: data,
		parent:  parentID,
	}
	return id, nil
}

func (s *MemoryStore) ListFiles(ctx context.Context, parentID string) ([]*File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*File
	for _, f := range s.files {
		if f.parent == parentID {
			out = append(out, copyMeta(&f.meta))
		}
	}
	return out, nil
}

func (s *MemoryStore) GetFile(ctx context.Context, id string) (*File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyMeta(&f.meta), nil
}

func (s *MemoryStore) ReadContent(ctx context.Context, id string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[id]
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(f.content)), nil
}

func (s *MemoryStore) ReadContentRange(ctx context.Context, id string, start, end int64) (io.ReadCloser, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[id]
	if !ok {
		return nil, 0, ErrNotFound
	}

	size := int64(len(f.content))
	if start < 0 || start >= size {
		return nil, size, ErrNotFound
	}
	if end >= size {
		end = size - 1
	}
	return io.NopCloser(bytes.NewReader(f.content[start : end+1])), size, nil
}

func (s *MemoryStore) UpdateProperties(ctx context.Context, id string, patch map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range patch {
		f.meta.Properties[k] = v
	}
	return nil
}

func (s *MemoryStore) IncrementProperty(ctx context.Context, id, key string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[id]
	if !ok {
		return 0, ErrNotFound
	}
	current, _ := strconv.ParseInt(f.meta.Properties[key], 10, 64)
	current += delta
	f.meta.Properties[key] = strconv.FormatInt(current, 10)
	return current, nil
}

func (s *MemoryStore) AllowPublicRead(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[id]
	if !ok {
		return ErrNotFound
	}
	f.public = true
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[id]; !ok {
		return ErrNotFound
	}
	delete(s.files, id)
	return nil
}

// Public reports whether anyone-read permission was granted on a file.
func (s *MemoryStore) Public(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[id]
	return ok && f.public
}

// FileCount returns the number of stored files across all folders.
func (s *MemoryStore) FileCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

// SetClock overrides the timestamp source for tests.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func copyMeta(f *File) *File {
	out := *f
	out.Properties = make(map[string]string, len(f.Properties))
	for k, v := range f.Properties {
		out.Properties[k] = v
	}
	return &out
}

var (
	_ Store       = (*MemoryStore)(nil)
	_ Counter     = (*MemoryStore)(nil)
	_ RangeReader = (*MemoryStore)(nil)
)
