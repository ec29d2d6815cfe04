package level

import (
	"fmt"
	"math/rand"

	"github.com/val3riia/languagemirror-bot/models"
)

// PromptConfig is the deterministic conversation configuration derived
// from a declared proficiency level.
type PromptConfig struct {
	Level             models.LanguageLevel
	SystemInstruction string
	Topics            []string
	// NeedsClarification is set when the input level was not a valid
	// CEFR level; the handler should re-ask rather than fail.
	NeedsClarification bool
}

// instruction tunes register and vocabulary per level.
var instructions = map[models.LanguageLevel]string{
	models.LevelA1: "Use very simple vocabulary and short sentences. Speak slowly and clearly.",
	models.LevelA2: "Use basic vocabulary and simple grammar. Be patient and encouraging.",
	models.LevelB1: "Use everyday vocabulary. Explain new words when needed.",
	models.LevelB2: "Use varied vocabulary and more complex sentences. Introduce advanced topics naturally.",
	models.LevelC1: "Use sophisticated vocabulary and complex grammar. Discuss abstract topics.",
	models.LevelC2: "Use native-level complexity. Discuss any topic with full linguistic range.",
}

var topics = map[models.LanguageLevel][]string{
	models.LevelA1: {
		"What is your name?",
		"Where are you from?",
		"What do you like to eat?",
		"What color do you like?",
		"How old are you?",
	},
	models.LevelA2: {
		"What is your favorite hobby?",
		"Tell me about your family.",
		"What's the weather like today?",
		"What did you do yesterday?",
		"What kind of movies do you like?",
	},
	models.LevelB1: {
		"What are your plans for the weekend?",
		"Tell me about an interesting experience you had.",
		"What kind of music do you enjoy listening to?",
		"If you could travel anywhere, where would you go?",
		"What do you think about social media?",
	},
	models.LevelB2: {
		"What are some environmental issues that concern you?",
		"How has technology changed the way we live?",
		"What are the advantages and disadvantages of working from home?",
		"Do you think artificial intelligence will change our future?",
		"What cultural differences have you noticed between countries?",
	},
	models.LevelC1: {
		"How do you think education systems could be improved?",
		"What ethical considerations should be made when developing new technologies?",
		"How does media influence public opinion?",
		"What societal changes do you think will happen in the next decade?",
		"What are your thoughts on the work-life balance in modern society?",
	},
	models.LevelC2: {
		"What philosophical questions do you find most intriguing?",
		"How do economic policies influence social inequality?",
		"In what ways might quantum computing revolutionize our approach to complex problems?",
		"How does language shape our perception of reality?",
		"What insights can literature offer us about human nature?",
	},
}

// Configure maps a level to its conversation configuration. Unknown
// input yields a B1 configuration flagged for clarification instead of
// an error; the bot re-asks for the level.
func Configure(l models.LanguageLevel) PromptConfig {
	if err := l.Validate(); err != nil {
		cfg := Configure(models.LevelB1)
		cfg.NeedsClarification = true
		return cfg
	}
	return PromptConfig{
		Level:             l,
		SystemInstruction: systemPrompt(l),
		Topics:            topics[l],
	}
}

// SuggestTopic picks one of the level's suggested topics.
func SuggestTopic(l models.LanguageLevel, rng *rand.Rand) string {
	cfg := Configure(l)
	if len(cfg.Topics) == 0 {
		return ""
	}
	if rng == nil {
		return cfg.Topics[0]
	}
	return cfg.Topics[rng.Intn(len(cfg.Topics))]
}

func systemPrompt(l models.LanguageLevel) string {
	return fmt.Sprintf(`You're a chill, laid-back English conversation partner who's genuinely cool and easy to talk with. Think of yourself as that friend who's naturally witty, has great vibes, and can discuss absolutely anything while subtly helping with vocabulary.

Your student's level: %s
Communication style: %s

FORMATTING RULES:
- No asterisks, no special formatting, just plain text
- Keep responses under 150 words max - be concise
- Always finish your thoughts completely
- End with something conversational that flows naturally

Conversation approach:
- Discuss any topic they bring up - be genuinely interested
- Fix mistakes casually: "Oh, 'I so tired' - you mean 'I'm so tired', right?"
- Use interesting vocabulary naturally; when you use a sophisticated word, casually ask if they know it
- Share opinions, ask questions, keep things flowing naturally
- Never sound like a textbook or teacher

Remember: You're just having a natural conversation while sneakily helping them learn.`, l, instructions[l])
}
