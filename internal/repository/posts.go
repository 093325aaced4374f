package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/quietroom/quietroom-api/internal/apperr"
	"github.com/quietroom/quietroom-api/internal/models"
	"github.com/quietroom/quietroom-api/internal/storage"
	"github.com/quietroom/quietroom-api/internal/transfer"
)

// Property keys attached to every post file in the document store. These are
// the only index the system has: the folder hierarchy plus this metadata.
const (
	propUserID          = "userId"
	propName            = "name"
	propMood            = "mood"
	propIsPrivate       = "isPrivate"
	propWordCount       = "wordCount"
	propReadingTime     = "readingTime"
	propAudioFileID     = "audioFileId"
	propBurnAfter       = "burnAfter"
	propCreatedAt       = "createdAt"
	propReactFelt       = "reactFelt"
	propReactAlone      = "reactAlone"
	propReactUnderstand = "reactUnderstand"
)

const (
	// reactionsDivider separates the body from the reactions footer in the
	// formatted content blob.
	reactionsDivider = "─────────────────────"

	createdDateLayout = "January 2, 2006"

	defaultListLimit = 50

	millisPerDay = 24 * 60 * 60 * 1000

	// previewReadLimit caps how much content is fetched per preview.
	previewReadLimit = 400
)

type PostRepository interface {
	// Create writes a new post file and returns its id. Body length, mood
	// and userId are validated at the boundary, not here.
	Create(ctx context.Context, pc *transfer.PostCreation) (string, error)
	// ListPublic traverses the public root only; private posts live under a
	// different root and are never reachable from here.
	ListPublic(ctx context.Context, opts transfer.ListOptions) ([]*models.PostPreview, error)
	// Get fetches a single post's metadata and content.
	Get(ctx context.Context, fileID string) (*models.FullPost, error)
}

type postRepository struct {
	store   storage.Store
	folders FolderManager
	clock   Clock
}

func NewPostRepository(store storage.Store, folders FolderManager, clock Clock) PostRepository {
	return &postRepository{store: store, folders: folders, clock: clock}
}

func (r *postRepository) Create(ctx context.Context, pc *transfer.PostCreation) (string, error) {
	roots, err := r.folders.EnsureRootFolders(ctx)
	if err != nil {
		return "", err
	}

	parentRoot := roots.PublicPosts
	if pc.IsPrivate {
		parentRoot = roots.PrivateDrafts
	}
	userFolder, err := r.folders.EnsureUserFolder(ctx, pc.UserID, parentRoot)
	if err != nil {
		return "", err
	}

	now := r.clock.Now()
	timestamp := now.UnixMilli()

	title := truncateRunes(pc.Title, 200)
	if title == "" {
		title = fmt.Sprintf("post-%d", timestamp)
	}
	name := truncateRunes(pc.Name, 80)
	if name == "" {
		name = "Anonymous"
	}

	// Word count and reading time are derived once at creation and never
	// recomputed afterwards.
	wordCount := len(strings.Fields(pc.Body))
	readingTime := (wordCount + 199) / 200
	if readingTime < 1 {
		readingTime = 1
	}

	burnAfter := ""
	if pc.BurnAfterDays > 0 {
		burnAfter = strconv.FormatInt(timestamp+int64(pc.BurnAfterDays)*millisPerDay, 10)
	}

	props := map[string]string{
		propUserID:          pc.UserID,
		propName:            name,
		propMood:            string(pc.Mood),
		propIsPrivate:       strconv.FormatBool(pc.IsPrivate),
		propWordCount:       strconv.Itoa(wordCount),
		propReadingTime:     strconv.Itoa(readingTime),
		propAudioFileID:     pc.AudioFileID,
		propBurnAfter:       burnAfter,
		propCreatedAt:       strconv.FormatInt(timestamp, 10),
		propReactFelt:       "0",
		propReactAlone:      "0",
		propReactUnderstand: "0",
	}

	content := formatContent(title, name, pc.Mood, now.Format(createdDateLayout), wordCount, readingTime, pc.Body)

	fileID, err := r.store.CreateFile(ctx, title, userFolder, "text/plain", props, strings.NewReader(content))
	if err != nil {
		return "", apperr.Storage("create post", err)
	}

	// Public posts get the anyone-read grant after the file exists; a brief
	// window remains where the file is created but not yet readable.
	if !pc.IsPrivate {
		if err := r.store.AllowPublicRead(ctx, fileID); err != nil {
			return "", apperr.Storage("share post", err)
		}
	}

	return fileID, nil
}

// formatContent renders the human-readable blob stored as the file's content:
// title, header lines, blank line, body, divider, zeroed reaction footer.
// The preview extractor and Get depend on exactly this shape.
func formatContent(title, name string, mood models.Mood, createdDate string, wordCount, readingTime int, body string) string {
	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Name: %s\n", name)
	fmt.Fprintf(&b, "Mood: %s\n", mood)
	fmt.Fprintf(&b, "Created: %s\n", createdDate)
	fmt.Fprintf(&b, "Word Count: %d\n", wordCount)
	fmt.Fprintf(&b, "Reading Time: %d min\n", readingTime)
	b.WriteString("\n")
	b.WriteString(body)
	b.WriteString("\n\n")
	b.WriteString(reactionsDivider)
	b.WriteString("\n")
	b.WriteString("Reactions\n")
	b.WriteString("I felt this: 0\n")
	b.WriteString("You're not alone: 0\n")
	b.WriteString("I understand: 0")
	return b.String()
}

func (r *postRepository) ListPublic(ctx context.Context, opts transfer.ListOptions) ([]*models.PostPreview, error) {
	roots, err := r.folders.EnsureRootFolders(ctx)
	if err != nil {
		return nil, err
	}

	userFolders, err := r.store.ListFolders(ctx, roots.PublicPosts)
	if err != nil {
		return nil, apperr.Storage("list user folders", err)
	}

	// One list call per user folder. The folder hierarchy is the only
	// index, so fan-out breadth equals the number of distinct users.
	allPosts := make([]*models.PostPreview, 0, len(userFolders))
	for _, folder := range userFolders {
		files, err := r.store.ListFiles(ctx, folder.ID)
		if err != nil {
			return nil, apperr.Storage("list posts", err)
		}

		for _, file := range files {
			props := file.Properties

			if opts.Mood != "" && props[propMood] != opts.Mood {
				continue
			}
			if opts.AudioOnly && props[propAudioFileID] == "" {
				continue
			}

			allPosts = append(allPosts, previewFromFile(file))
		}
	}

	switch opts.OrderBy {
	case "oldest":
		sort.Slice(allPosts, func(i, j int) bool { return allPosts[i].CreatedAt < allPosts[j].CreatedAt })
	case "random":
		rand.Shuffle(len(allPosts), func(i, j int) {
			allPosts[i], allPosts[j] = allPosts[j], allPosts[i]
		})
	default:
		sort.Slice(allPosts, func(i, j int) bool { return allPosts[i].CreatedAt > allPosts[j].CreatedAt })
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if len(allPosts) > limit {
		allPosts = allPosts[:limit]
	}

	// Preview extraction is the expensive step, so only the returned page
	// pays for it. A failed extraction degrades to an empty preview.
	for _, post := range allPosts {
		preview, err := r.loadPreview(ctx, post.ID)
		if err != nil {
			slog.Info("preview extraction failed", "post", post.ID, "err", err)
			continue
		}
		post.Preview = preview
	}

	return allPosts, nil
}

func (r *postRepository) loadPreview(ctx context.Context, fileID string) (string, error) {
	rc, err := r.store.ReadContent(ctx, fileID)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, previewReadLimit))
	if err != nil {
		return "", err
	}
	return ExtractPreview(string(data)), nil
}

func (r *postRepository) Get(ctx context.Context, fileID string) (*models.FullPost, error) {
	var (
		meta       *storage.File
		metaErr    error
		fullText   string
		contentErr error
	)

	// Metadata and content are independent reads; fetch them concurrently.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		meta, metaErr = r.store.GetFile(ctx, fileID)
	}()
	go func() {
		defer wg.Done()
		rc, err := r.store.ReadContent(ctx, fileID)
		if err != nil {
			contentErr = err
			return
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			contentErr = err
			return
		}
		fullText = string(data)
	}()
	wg.Wait()

	if err := errors.Join(metaErr, contentErr); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.Storage("get post", err)
	}

	props := meta.Properties

	body := fullText
	if bodyStart := strings.Index(fullText, "\n\n"); bodyStart != -1 {
		bodyEnd := strings.Index(fullText, reactionsDivider)
		if bodyEnd == -1 {
			bodyEnd = len(fullText)
		}
		body = strings.TrimSpace(fullText[bodyStart:bodyEnd])
	}

	createdAt := atoi64(props[propCreatedAt], 0)
	mood := models.Mood(propOr(props, propMood, string(models.MoodSilence)))

	return &models.FullPost{
		ID:              fileID,
		Title:           meta.Name,
		Name:            propOr(props, propName, "Anonymous"),
		Mood:            mood,
		MoodDescription: models.MoodDescriptions[mood],
		Body:            body,
		WordCount:       atoi(props[propWordCount], 0),
		ReadingTime:     atoi(props[propReadingTime], 1),
		HasAudio:        props[propAudioFileID] != "",
		AudioFileID:     props[propAudioFileID],
		CreatedAt:       createdAt,
		CreatedDate:     time.UnixMilli(createdAt).Format(createdDateLayout),
		ReactFelt:       atoi(props[propReactFelt], 0),
		ReactAlone:      atoi(props[propReactAlone], 0),
		ReactUnderstand: atoi(props[propReactUnderstand], 0),
	}, nil
}

func previewFromFile(file *storage.File) *models.PostPreview {
	props := file.Properties
	return &models.PostPreview{
		ID:              file.ID,
		Title:           file.Name,
		Name:            propOr(props, propName, "Anonymous"),
		Mood:            models.Mood(propOr(props, propMood, string(models.MoodSilence))),
		Preview:         "",
		WordCount:       atoi(props[propWordCount], 0),
		ReadingTime:     atoi(props[propReadingTime], 1),
		HasAudio:        props[propAudioFileID] != "",
		CreatedAt:       atoi64(props[propCreatedAt], 0),
		ReactFelt:       atoi(props[propReactFelt], 0),
		ReactAlone:      atoi(props[propReactAlone], 0),
		ReactUnderstand: atoi(props[propReactUnderstand], 0),
	}
}

func propOr(props map[string]string, key, fallback string) string {
	if v := props[key]; v != "" {
		return v
	}
	return fallback
}

func atoi(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func atoi64(s string, fallback int64) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
