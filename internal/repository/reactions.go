package repository

import (
	"context"
	"errors"
	"strconv"

	"github.com/quietroom/quietroom-api/internal/apperr"
	"github.com/quietroom/quietroom-api/internal/models"
	"github.com/quietroom/quietroom-api/internal/storage"
)

// reactionRetries bounds the read-modify-write fallback. Without a
// conditional-update primitive in the backend this only absorbs transient
// write failures; concurrent increments on the same post can still lose one.
const reactionRetries = 3

type ReactionRepository interface {
	// Increment adds 1 to one of the three named counters on a post.
	Increment(ctx context.Context, fileID string, kind models.ReactionKind) error
}

type reactionRepository struct {
	store storage.Store
}

func NewReactionRepository(store storage.Store) ReactionRepository {
	return &reactionRepository{store: store}
}

func (r *reactionRepository) Increment(ctx context.Context, fileID string, kind models.ReactionKind) error {
	key := reactionPropKey(kind)

	// Prefer the backend's atomic increment when it offers one.
	if counter, ok := r.store.(storage.Counter); ok {
		if _, err := counter.IncrementProperty(ctx, fileID, key, 1); err != nil {
			return apperr.Storage("increment reaction", err)
		}
		return nil
	}

	var lastErr error
	for attempt := 0; attempt < reactionRetries; attempt++ {
		file, err := r.store.GetFile(ctx, fileID)
		if err != nil {
			// a missing post never appears on retry
			if errors.Is(err, storage.ErrNotFound) {
				return apperr.Storage("increment reaction", err)
			}
			lastErr = err
			continue
		}

		current := atoi64(file.Properties[key], 0)
		patch := map[string]string{key: strconv.FormatInt(current+1, 10)}
		if err := r.store.UpdateProperties(ctx, fileID, patch); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return apperr.Storage("increment reaction", lastErr)
}

func reactionPropKey(kind models.ReactionKind) string {
	switch kind {
	case models.ReactionFelt:
		return propReactFelt
	case models.ReactionAlone:
		return propReactAlone
	default:
		return propReactUnderstand
	}
}
