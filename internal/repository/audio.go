package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/quietroom/quietroom-api/internal/apperr"
	"github.com/quietroom/quietroom-api/internal/storage"
)

// AudioRepository stores audio attachments as standalone files under the
// audio root. Attachments are referenced by id from a post's metadata; they
// are never deleted when their owning post goes away (known gap, left as is).
type AudioRepository interface {
	// Upload streams the bytes into a new public file and returns its id.
	// Size and MIME validation happen at the API boundary, not here.
	Upload(ctx context.Context, data []byte, mimeType, userID string) (string, error)
	// Stat fetches the attachment's metadata.
	Stat(ctx context.Context, fileID string) (*storage.File, error)
	// Open streams the full attachment.
	Open(ctx context.Context, fileID string) (io.ReadCloser, error)
	// OpenRange streams an inclusive byte range and reports the total size.
	OpenRange(ctx context.Context, fileID string, start, end int64) (io.ReadCloser, int64, error)
	// CanRange reports whether the backend supports partial reads.
	CanRange() bool
	// StreamURL is a pure string template, not a network call.
	StreamURL(fileID string) string
}

type audioRepository struct {
	store storage.Store
	// readStore serves content reads; a read-only credential when
	// configured, otherwise the same store.
	readStore storage.Store
	folders   FolderManager
	clock     Clock
}

func NewAudioRepository(store, readStore storage.Store, folders FolderManager, clock Clock) AudioRepository {
	if readStore == nil {
		readStore = store
	}
	return &audioRepository{store: store, readStore: readStore, folders: folders, clock: clock}
}

func (r *audioRepository) Upload(ctx context.Context, data []byte, mimeType, userID string) (string, error) {
	roots, err := r.folders.EnsureRootFolders(ctx)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("audio-%s-%d", userID, r.clock.Now().UnixMilli())
	fileID, err := r.store.CreateFile(ctx, name, roots.AudioFiles, mimeType, nil, bytes.NewReader(data))
	if err != nil {
		return "", apperr.Storage("upload audio", err)
	}

	if err := r.store.AllowPublicRead(ctx, fileID); err != nil {
		return "", apperr.Storage("share audio", err)
	}
	return fileID, nil
}

func (r *audioRepository) Stat(ctx context.Context, fileID string) (*storage.File, error) {
	file, err := r.readStore.GetFile(ctx, fileID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.Storage("stat audio", err)
	}
	return file, nil
}

func (r *audioRepository) Open(ctx context.Context, fileID string) (io.ReadCloser, error) {
	rc, err := r.readStore.ReadContent(ctx, fileID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.Storage("read audio", err)
	}
	return rc, nil
}

func (r *audioRepository) OpenRange(ctx context.Context, fileID string, start, end int64) (io.ReadCloser, int64, error) {
	ranger, ok := r.readStore.(storage.RangeReader)
	if !ok {
		return nil, 0, apperr.Storage("read audio range", errors.New("backend does not support range reads"))
	}

	rc, total, err := ranger.ReadContentRange(ctx, fileID, start, end)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, 0, apperr.ErrNotFound
		}
		return nil, 0, apperr.Storage("read audio range", err)
	}
	return rc, total, nil
}

func (r *audioRepository) CanRange() bool {
	_, ok := r.readStore.(storage.RangeReader)
	return ok
}

func (r *audioRepository) StreamURL(fileID string) string {
	return "/api/audio/" + fileID
}
