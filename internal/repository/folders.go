package repository

import (
	"context"
	"sync"

	"github.com/quietroom/quietroom-api/internal/apperr"
	"github.com/quietroom/quietroom-api/internal/storage"
)

const (
	publicPostsFolder   = "public-posts"
	privateDraftsFolder = "private-drafts"
	audioFilesFolder    = "audio-files"
	userFolderPrefix    = "user-"
)

// RootFolders holds the ids of the three fixed root containers.
type RootFolders struct {
	PublicPosts   string
	PrivateDrafts string
	AudioFiles    string
}

type FolderManager interface {
	// EnsureRootFolders looks up or creates the three root containers.
	// Repeated calls converge to the same ids.
	EnsureRootFolders(ctx context.Context) (RootFolders, error)
	// EnsureUserFolder looks up or creates the per-user subfolder under a
	// root container and returns its id.
	EnsureUserFolder(ctx context.Context, userID, parentID string) (string, error)
}

type folderManager struct {
	store  storage.Store
	rootID string

	mu          sync.Mutex
	roots       *RootFolders
	userFolders map[string]string
}

func NewFolderManager(store storage.Store, rootID string) FolderManager {
	return &folderManager{
		store:       store,
		rootID:      rootID,
		userFolders: make(map[string]string),
	}
}

func (m *folderManager) EnsureRootFolders(ctx context.Context) (RootFolders, error) {
	m.mu.Lock()
	if m.roots != nil {
		roots := *m.roots
		m.mu.Unlock()
		return roots, nil
	}
	m.mu.Unlock()

	publicID, err := m.findOrCreate(ctx, publicPostsFolder, m.rootID)
	if err != nil {
		return RootFolders{}, err
	}
	privateID, err := m.findOrCreate(ctx, privateDraftsFolder, m.rootID)
	if err != nil {
		return RootFolders{}, err
	}
	audioID, err := m.findOrCreate(ctx, audioFilesFolder, m.rootID)
	if err != nil {
		return RootFolders{}, err
	}

	roots := RootFolders{PublicPosts: publicID, PrivateDrafts: privateID, AudioFiles: audioID}

	m.mu.Lock()
	m.roots = &roots
	m.mu.Unlock()
	return roots, nil
}

func (m *folderManager) EnsureUserFolder(ctx context.Context, userID, parentID string) (string, error) {
	cacheKey := parentID + "/" + userID

	m.mu.Lock()
	if id, ok := m.userFolders[cacheKey]; ok {
		m.mu.Unlock()
		return id, nil
	}
	m.mu.Unlock()

	id, err := m.findOrCreate(ctx, userFolderPrefix+userID, parentID)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.userFolders[cacheKey] = id
	m.mu.Unlock()
	return id, nil
}

// findOrCreate is lookup-then-create without a conditional primitive: two
// concurrent first requests for the same folder may both create it. Accepted
// race; later lookups settle on whichever copy lists first.
func (m *folderManager) findOrCreate(ctx context.Context, name, parentID string) (string, error) {
	id, err := m.store.FindFolder(ctx, name, parentID)
	if err != nil {
		return "", apperr.Storage("find folder "+name, err)
	}
	if id != "" {
		return id, nil
	}

	id, err = m.store.CreateFolder(ctx, name, parentID)
	if err != nil {
		return "", apperr.Storage("create folder "+name, err)
	}
	return id, nil
}
