package repository

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/quietroom/quietroom-api/internal/apperr"
	"github.com/quietroom/quietroom-api/internal/storage"
)

// Sweeper deletes posts whose burn-after timestamp has passed. It runs on an
// external daily schedule and from the authenticated cleanup endpoint.
type Sweeper interface {
	// SweepExpired scans both roots and returns the number of deleted
	// posts. Per-file failures are logged and skipped, never fatal.
	SweepExpired(ctx context.Context) (int, error)
}

type sweeper struct {
	store   storage.Store
	folders FolderManager
	clock   Clock
}

func NewSweeper(store storage.Store, folders FolderManager, clock Clock) Sweeper {
	return &sweeper{store: store, folders: folders, clock: clock}
}

func (s *sweeper) SweepExpired(ctx context.Context) (int, error) {
	roots, err := s.folders.EnsureRootFolders(ctx)
	if err != nil {
		return 0, err
	}

	now := s.clock.Now().UnixMilli()
	rootIDs := []string{roots.PublicPosts, roots.PrivateDrafts}

	counts := make([]int, len(rootIDs))
	errs := make([]error, len(rootIDs))

	var wg sync.WaitGroup
	for i, rootID := range rootIDs {
		wg.Add(1)
		go func(i int, rootID string) {
			defer wg.Done()
			counts[i], errs[i] = s.sweepRoot(ctx, rootID, now)
		}(i, rootID)
	}
	wg.Wait()

	total := counts[0] + counts[1]
	if err := errors.Join(errs...); err != nil {
		return total, apperr.Storage("sweep expired posts", err)
	}
	return total, nil
}

func (s *sweeper) sweepRoot(ctx context.Context, rootID string, now int64) (int, error) {
	userFolders, err := s.store.ListFolders(ctx, rootID)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, folder := range userFolders {
		files, err := s.store.ListFiles(ctx, folder.ID)
		if err != nil {
			slog.Error("sweep: listing folder failed", "folder", folder.ID, "err", err)
			continue
		}

		for _, file := range files {
			burnAfter := atoi64(file.Properties[propBurnAfter], 0)
			if burnAfter <= 0 || now <= burnAfter {
				continue
			}
			if err := s.store.Delete(ctx, file.ID); err != nil {
				slog.Error("sweep: delete failed", "file", file.ID, "err", err)
				continue
			}
			deleted++
		}
	}
	return deleted, nil
}
