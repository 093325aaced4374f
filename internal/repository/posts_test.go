package repository

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/quietroom/quietroom-api/internal/apperr"
	"github.com/quietroom/quietroom-api/internal/models"
	"github.com/quietroom/quietroom-api/internal/storage"
	"github.com/quietroom/quietroom-api/internal/transfer"
)

func newPostFixture(t *testing.T) (*storage.MemoryStore, PostRepository, *stubClock) {
	t.Helper()
	store := storage.NewMemoryStore()
	clk := newStubClock(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC))
	folders := NewFolderManager(store, storage.MemoryRootID)
	return store, NewPostRepository(store, folders, clk), clk
}

func submit(userID string, mood models.Mood, body string) *transfer.PostCreation {
	return &transfer.PostCreation{
		Name:   "Anonymous",
		Mood:   mood,
		Body:   body,
		UserID: userID,
	}
}

func TestCreatePostProperties(t *testing.T) {
	store, repo, clk := newPostFixture(t)
	ctx := context.Background()

	body := strings.TrimSpace(strings.Repeat("word ", 250)) // 250 words
	pc := submit("u1", models.MoodRain, body)
	pc.Title = "a title"
	pc.BurnAfterDays = 3

	id, err := repo.Create(ctx, pc)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	f, err := store.GetFile(ctx, id)
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}

	createdAt := clk.Now().UnixMilli()
	wantProps := map[string]string{
		"userId":          "u1",
		"name":            "Anonymous",
		"mood":            "Rain",
		"isPrivate":       "false",
		"wordCount":       "250",
		"readingTime":     "2", // ceil(250/200)
		"burnAfter":       strconv.FormatInt(createdAt+3*86400000, 10),
		"createdAt":       strconv.FormatInt(createdAt, 10),
		"reactFelt":       "0",
		"reactAlone":      "0",
		"reactUnderstand": "0",
	}
	for k, want := range wantProps {
		if got := f.Properties[k]; got != want {
			t.Errorf("property %s = %q, want %q", k, got, want)
		}
	}

	if !store.Public(id) {
		t.Error("public post did not receive anyone-read grant")
	}
}

func TestCreatePostReadingTimeMinimumOne(t *testing.T) {
	store, repo, _ := newPostFixture(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, submit("u1", models.MoodSilence, "just a few quiet words"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	f, _ := store.GetFile(ctx, id)
	if f.Properties["wordCount"] != "5" {
		t.Errorf("wordCount = %q, want 5", f.Properties["wordCount"])
	}
	if f.Properties["readingTime"] != "1" {
		t.Errorf("readingTime = %q, want 1", f.Properties["readingTime"])
	}
}

func TestCreatePostDefaultsAndTruncation(t *testing.T) {
	store, repo, clk := newPostFixture(t)
	ctx := context.Background()

	pc := submit("u1", models.MoodNight, "a body long enough to be a post")
	pc.Title = strings.Repeat("t", 300)
	pc.Name = strings.Repeat("n", 100)

	id, err := repo.Create(ctx, pc)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	f, _ := store.GetFile(ctx, id)
	if len(f.Name) != 200 {
		t.Errorf("title length = %d, want 200", len(f.Name))
	}
	if len(f.Properties["name"]) != 80 {
		t.Errorf("name length = %d, want 80", len(f.Properties["name"]))
	}

	// empty title falls back to a timestamped name
	pc = submit("u1", models.MoodNight, "another body long enough")
	pc.Name = ""
	id, err = repo.Create(ctx, pc)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	f, _ = store.GetFile(ctx, id)
	wantTitle := "post-" + strconv.FormatInt(clk.Now().UnixMilli(), 10)
	if f.Name != wantTitle {
		t.Errorf("default title = %q, want %q", f.Name, wantTitle)
	}
	if f.Properties["name"] != "Anonymous" {
		t.Errorf("default name = %q, want Anonymous", f.Properties["name"])
	}
}

func TestCreatePrivatePostNotShared(t *testing.T) {
	store, repo, _ := newPostFixture(t)
	ctx := context.Background()

	pc := submit("u1", models.MoodStatic, "a private confession nobody should list")
	pc.IsPrivate = true

	id, err := repo.Create(ctx, pc)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if store.Public(id) {
		t.Error("private post received anyone-read grant")
	}
}

func TestListPublicOrdering(t *testing.T) {
	_, repo, clk := newPostFixture(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := repo.Create(ctx, submit("u1", models.MoodRain, "an ordering test body number "+strconv.Itoa(i)))
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		ids = append(ids, id)
		clk.Advance(time.Minute)
	}

	latest, err := repo.ListPublic(ctx, transfer.ListOptions{OrderBy: "latest"})
	if err != nil {
		t.Fatalf("ListPublic latest: %v", err)
	}
	if got := idsOf(latest); got[0] != ids[2] || got[1] != ids[1] || got[2] != ids[0] {
		t.Errorf("latest order = %v, want %v reversed", got, ids)
	}

	oldest, err := repo.ListPublic(ctx, transfer.ListOptions{OrderBy: "oldest"})
	if err != nil {
		t.Fatalf("ListPublic oldest: %v", err)
	}
	if got := idsOf(oldest); got[0] != ids[0] || got[2] != ids[2] {
		t.Errorf("oldest order = %v, want %v", got, ids)
	}

	random, err := repo.ListPublic(ctx, transfer.ListOptions{OrderBy: "random"})
	if err != nil {
		t.Fatalf("ListPublic random: %v", err)
	}
	got := idsOf(random)
	if len(got) != len(ids) {
		t.Fatalf("random lost posts: %v", got)
	}
	seen := map[string]bool{}
	for _, id := range got {
		seen[id] = true
	}
	for _, id := range ids {
		if !seen[id] {
			t.Errorf("random order dropped %s", id)
		}
	}
}

func TestListPublicFilters(t *testing.T) {
	_, repo, _ := newPostFixture(t)
	ctx := context.Background()

	repo.Create(ctx, submit("u1", models.MoodRain, "a rainy confession for the filter"))
	repo.Create(ctx, submit("u2", models.MoodNight, "a nightly confession for the filter"))

	withAudio := submit("u1", models.MoodRain, "a confession with an audio attachment")
	withAudio.AudioFileID = "audio-123"
	audioID, _ := repo.Create(ctx, withAudio)

	byMood, err := repo.ListPublic(ctx, transfer.ListOptions{Mood: "Rain"})
	if err != nil {
		t.Fatalf("ListPublic: %v", err)
	}
	if len(byMood) != 2 {
		t.Fatalf("mood filter returned %d posts, want 2", len(byMood))
	}
	for _, p := range byMood {
		if p.Mood != models.MoodRain {
			t.Errorf("mood filter leaked %s", p.Mood)
		}
	}

	byAudio, err := repo.ListPublic(ctx, transfer.ListOptions{AudioOnly: true})
	if err != nil {
		t.Fatalf("ListPublic: %v", err)
	}
	if len(byAudio) != 1 || byAudio[0].ID != audioID {
		t.Fatalf("audioOnly = %v, want only %s", idsOf(byAudio), audioID)
	}
	if !byAudio[0].HasAudio {
		t.Error("hasAudio not set")
	}
}

func TestListPublicExcludesPrivatePosts(t *testing.T) {
	_, repo, _ := newPostFixture(t)
	ctx := context.Background()

	private := submit("u1", models.MoodRain, "a private post that must stay hidden")
	private.IsPrivate = true
	privateID, _ := repo.Create(ctx, private)
	publicID, _ := repo.Create(ctx, submit("u1", models.MoodRain, "a public post that should appear"))

	posts, err := repo.ListPublic(ctx, transfer.ListOptions{})
	if err != nil {
		t.Fatalf("ListPublic: %v", err)
	}
	for _, p := range posts {
		if p.ID == privateID {
			t.Fatal("private post surfaced in public listing")
		}
	}
	if len(posts) != 1 || posts[0].ID != publicID {
		t.Fatalf("listing = %v, want only %s", idsOf(posts), publicID)
	}
}

func TestListPublicLimitAndPreview(t *testing.T) {
	_, repo, clk := newPostFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := repo.Create(ctx, submit("u1", models.MoodRain,
			"a sufficiently long preview body for post number "+strconv.Itoa(i)))
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		clk.Advance(time.Second)
	}

	posts, err := repo.ListPublic(ctx, transfer.ListOptions{Limit: 2})
	if err != nil {
		t.Fatalf("ListPublic: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("limit ignored: got %d posts", len(posts))
	}
	for _, p := range posts {
		if !strings.HasPrefix(p.Preview, "a sufficiently long preview body") {
			t.Errorf("preview not extracted: %q", p.Preview)
		}
	}
}

func TestGetPostRoundTrip(t *testing.T) {
	_, repo, clk := newPostFixture(t)
	ctx := context.Background()

	body := "First paragraph of the confession.\n\nSecond paragraph, still the body."
	pc := submit("u9", models.MoodSilence, body)
	pc.Title = "roundtrip"

	id, err := repo.Create(ctx, pc)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	post, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if post.Body != body {
		t.Errorf("body = %q, want %q", post.Body, body)
	}
	if post.Title != "roundtrip" {
		t.Errorf("title = %q", post.Title)
	}
	if post.Mood != models.MoodSilence {
		t.Errorf("mood = %q", post.Mood)
	}
	if post.MoodDescription != models.MoodDescriptions[models.MoodSilence] {
		t.Errorf("moodDescription = %q", post.MoodDescription)
	}
	if post.CreatedAt != clk.Now().UnixMilli() {
		t.Errorf("createdAt = %d, want %d", post.CreatedAt, clk.Now().UnixMilli())
	}
	if post.CreatedDate != "January 15, 2024" {
		t.Errorf("createdDate = %q", post.CreatedDate)
	}
	if post.ReactFelt != 0 || post.ReactAlone != 0 || post.ReactUnderstand != 0 {
		t.Error("fresh post has nonzero reactions")
	}
}

func TestGetPostNotFound(t *testing.T) {
	_, repo, _ := newPostFixture(t)

	_, err := repo.Get(context.Background(), "missing-id")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("Get missing = %v, want apperr.ErrNotFound", err)
	}
}

func idsOf(posts []*models.PostPreview) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}
