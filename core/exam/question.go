package exam

// Sections
const (
	SectionReading   = "reading"
	SectionListening = "listening"
	SectionSpeaking  = "speaking"
	SectionWriting   = "writing"
)

// Question is an exam question as far as visibility is concerned.
type Question struct {
	ID         string `json:"id"`
	Section    string `json:"section,omitempty"`    // empty: every section
	Difficulty Level  `json:"difficulty,omitempty"` // empty: every tier
}

// FilterQuestions keeps the questions of section that are suitable for tier.
// Questions without a section or difficulty are kept. The input is not modified and
// the order is preserved.
func FilterQuestions(questions []Question, tier Level, section string) []Question {
	filtered := make([]Question, 0, len(questions))
	for _, q := range questions {
		if q.Section != "" && q.Section != section {
			continue
		}
		if q.Difficulty != "" && !IsSuitable(q.Difficulty, tier) {
			continue
		}
		filtered = append(filtered, q)
	}
	return filtered
}
