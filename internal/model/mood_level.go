package model

const (
	MinMoodLevel = 1
	MaxMoodLevel = 5

	UnknownMoodDescription = "Unknown"
	UnknownMoodEmoji       = "❓"
)

var moodDescriptions = map[int]string{
	1: "Very Bad",
	2: "Bad",
	3: "Neutral",
	4: "Good",
	5: "Very Good",
}

var moodEmojis = map[int]string{
	1: "😞",
	2: "😔",
	3: "😐",
	4: "😊",
	5: "😁",
}

// ValidMoodLevel reports whether level can be persisted.
func ValidMoodLevel(level int) bool {
	return level >= MinMoodLevel && level <= MaxMoodLevel
}

// MoodDescription returns the label for level, or "Unknown" outside 1-5.
func MoodDescription(level int) string {
	if d, ok := moodDescriptions[level]; ok {
		return d
	}
	return UnknownMoodDescription
}

// MoodEmoji returns the emoji for level, or "❓" outside 1-5.
func MoodEmoji(level int) string {
	if e, ok := moodEmojis[level]; ok {
		return e
	}
	return UnknownMoodEmoji
}
