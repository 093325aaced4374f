package models

// Mood is one of the four fixed emotional tags attached to a post.
type Mood string

const (
	MoodRain    Mood = "Rain"
	MoodStatic  Mood = "Static"
	MoodSilence Mood = "Silence"
	MoodNight   Mood = "Night"
)

// ParseMood validates a raw mood value. Anything outside the four tags is
// rejected at the boundary and never stored.
func ParseMood(s string) (Mood, bool) {
	switch Mood(s) {
	case MoodRain, MoodStatic, MoodSilence, MoodNight:
		return Mood(s), true
	}
	return "", false
}

var MoodDescriptions = map[Mood]string{
	MoodRain:    "something heavy",
	MoodStatic:  "something unresolved",
	MoodSilence: "something unspoken",
	MoodNight:   "something dark",
}

// ReactionKind names one of the three anonymous per-post counters.
type ReactionKind string

const (
	ReactionFelt       ReactionKind = "felt"
	ReactionAlone      ReactionKind = "alone"
	ReactionUnderstand ReactionKind = "understand"
)

func ParseReaction(s string) (ReactionKind, bool) {
	switch ReactionKind(s) {
	case ReactionFelt, ReactionAlone, ReactionUnderstand:
		return ReactionKind(s), true
	}
	return "", false
}

// PostPreview is the lightweight record returned by list views. Preview holds
// at most 120 characters of body text and may be empty when extraction failed.
type PostPreview struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Name            string `json:"name"`
	Mood            Mood   `json:"mood"`
	Preview         string `json:"preview"`
	WordCount       int    `json:"wordCount"`
	ReadingTime     int    `json:"readingTime"`
	HasAudio        bool   `json:"hasAudio"`
	CreatedAt       int64  `json:"createdAt"`
	ReactFelt       int    `json:"reactFelt"`
	ReactAlone      int    `json:"reactAlone"`
	ReactUnderstand int    `json:"reactUnderstand"`
}

// FullPost is the complete record for a single post page.
type FullPost struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Name            string `json:"name"`
	Mood            Mood   `json:"mood"`
	MoodDescription string `json:"moodDescription"`
	Body            string `json:"body"`
	WordCount       int    `json:"wordCount"`
	ReadingTime     int    `json:"readingTime"`
	HasAudio        bool   `json:"hasAudio"`
	AudioFileID     string `json:"audioFileId"`
	CreatedAt       int64  `json:"createdAt"`
	CreatedDate     string `json:"createdDate"`
	ReactFelt       int    `json:"reactFelt"`
	ReactAlone      int    `json:"reactAlone"`
	ReactUnderstand int    `json:"reactUnderstand"`
}
