package transfer

import "github.com/quietroom/quietroom-api/internal/models"

// SubmitPost is the JSON body of POST /posts.
type SubmitPost struct {
	Title         string `json:"title"`
	Name          string `json:"name"`
	Body          string `json:"body"`
	Mood          string `json:"mood"`
	UserID        string `json:"userId"`
	IsPrivate     bool   `json:"isPrivate"`
	BurnAfterDays int    `json:"burnAfterDays"`
	AudioFileID   string `json:"audioFileId"`
}

// PostCreation is the validated input handed to the post repository.
type PostCreation struct {
	Title         string
	Name          string
	Mood          models.Mood
	Body          string
	UserID        string
	IsPrivate     bool
	AudioFileID   string
	BurnAfterDays int
}

// ListOptions controls GET /posts filtering and ordering.
type ListOptions struct {
	Limit     int
	Mood      string
	OrderBy   string // latest, oldest or random
	AudioOnly bool
}

// SubmitReaction is the JSON body of POST /reactions/{fileId}.
type SubmitReaction struct {
	Reaction string `json:"reaction"`
}
