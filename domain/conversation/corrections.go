package conversation

import (
	"fmt"
	"strings"

	"github.com/val3riia/languagemirror-bot/models"
)

// correctionPatterns maps common learner mistakes to their natural
// form. Ordered so the first match wins deterministically.
var correctionPatterns = []struct {
	pattern string
	fix     string
}{
	{"i am agree", "I agree"},
	{"i am interesting in", "I am interested in"},
	{"i went in", "I went to"},
	{"i goed", "I went"},
	{"i am working since", "I have been working since"},
	{"yesterday i go", "yesterday I went"},
	{"i didn't went", "I didn't go"},
	{"i am here since", "I have been here since"},
	{"persons", "people"},
	{"informations", "information"},
	{"advices", "advice"},
}

// Correction returns a casual correction hint for the utterance, or ""
// when nothing matches. Advanced speakers (C1/C2) get fewer
// interruptions, so corrections are suppressed for them.
func Correction(lvl models.LanguageLevel, userText string) string {
	if lvl == models.LevelC1 || lvl == models.LevelC2 {
		return ""
	}
	lowered := strings.ToLower(userText)
	for _, c := range correctionPatterns {
		if strings.Contains(lowered, c.pattern) {
			return fmt.Sprintf("I noticed you said '%s'. A more natural way to express that would be '%s'.", c.pattern, c.fix)
		}
	}
	return ""
}
