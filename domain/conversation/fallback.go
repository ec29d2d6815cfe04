package conversation

import (
	"hash/fnv"
	"strings"

	"github.com/val3riia/languagemirror-bot/models"
)

// Intent classifies a user utterance for fallback reply selection.
type Intent string

const (
	IntentGreeting  Intent = "greeting"
	IntentConfusion Intent = "confusion"
	IntentFollowUp  Intent = "follow_up"
)

var greetingWords = []string{"hello", "hi", "hey", "good morning", "good evening", "good afternoon"}

var confusionWords = []string{"what?", "i don't understand", "i dont understand", "confused", "sorry?", "huh"}

// DetectIntent classifies the utterance with simple keyword matching.
// The default intent is follow-up: keep the conversation moving.
func DetectIntent(text string) Intent {
	lowered := strings.ToLower(strings.TrimSpace(text))
	for _, w := range greetingWords {
		if lowered == w || strings.HasPrefix(lowered, w+" ") || strings.HasPrefix(lowered, w+"!") {
			return IntentGreeting
		}
	}
	for _, w := range confusionWords {
		if strings.Contains(lowered, w) {
			return IntentConfusion
		}
	}
	return IntentFollowUp
}

var greetingReplies = []string{
	"Hello! How are you today?",
	"Hi there! What would you like to talk about?",
	"Welcome! What's on your mind?",
}

var confusionReplies = []string{
	"No worries, let me put it differently. What part was unclear?",
	"That's okay! Let's slow down. Tell me what you understood so far.",
	"Let's try again with simpler words. What would you like to talk about?",
}

// followUpReplies are keyed by level so the fallback stays
// level-appropriate even without the completion service.
var followUpReplies = map[models.LanguageLevel][]string{
	models.LevelA1: {
		"That's interesting! Can you tell me more?",
		"Good! What else can you say about it?",
	},
	models.LevelA2: {
		"I see what you mean. What do you think about that?",
		"Nice! Can you give me an example?",
	},
	models.LevelB1: {
		"That's a good point. How did you come to that conclusion?",
		"Interesting! How does that make you feel?",
	},
	models.LevelB2: {
		"Interesting perspective! I'd love to hear more about your experience with this.",
		"I see. What would you say is the main reason behind that?",
	},
	models.LevelC1: {
		"That's quite thought-provoking. What factors do you think contribute to this situation?",
		"A nuanced take. How might someone argue the opposite?",
	},
	models.LevelC2: {
		"Fascinating insight! How do you think this phenomenon might evolve in the future?",
		"Compelling. What underlying assumptions is that view resting on?",
	},
}

var encouragements = []string{
	"You're expressing yourself very well!",
	"Your English is improving nicely!",
	"I'm impressed with how you structured that thought!",
}

// Fallback returns a deterministic templated reply for the utterance.
// The same input always yields the same reply, which keeps the
// degraded path testable.
func Fallback(lvl models.LanguageLevel, userText string) string {
	intent := DetectIntent(userText)
	pick := func(options []string) string {
		if len(options) == 0 {
			return "I understand. Please continue sharing your thoughts."
		}
		return options[seed(userText)%uint32(len(options))]
	}

	switch intent {
	case IntentGreeting:
		return pick(greetingReplies)
	case IntentConfusion:
		return pick(confusionReplies)
	}

	replies := followUpReplies[lvl]
	if replies == nil {
		replies = followUpReplies[models.LevelB1]
	}
	reply := pick(replies)
	// Longer answers have earned a bit of encouragement.
	if len(strings.Fields(userText)) >= 12 {
		reply += " " + pick(encouragements)
	}
	return reply
}

func seed(text string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(text))))
	return h.Sum32()
}
