package app

import (
	"math/rand"
	"strconv"
	"strings"

	"trivia-quiz-service/internal/domain"
)

// entityReplacer decodes the fixed entity set emitted by Open Trivia DB.
// Unknown entities are left untouched.
var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#039;", "'",
	"&apos;", "'",
	"&nbsp;", " ",
	"&copy;", "©",
	"&reg;", "®",
	"&trade;", "™",
)

// DecodeEntities replaces the supported HTML entities in s.
func DecodeEntities(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	return entityReplacer.Replace(s)
}

// NormalizeBatch converts a raw batch into questions, keeping batch order.
func NormalizeBatch(raws []domain.RawQuestion, rnd *rand.Rand) []domain.Question {
	questions := make([]domain.Question, 0, len(raws))
	for idx, raw := range raws {
		questions = append(questions, Normalize(raw, idx, rnd))
	}
	return questions
}

// Normalize decodes raw and shuffles its options. The correct option is tracked
// by tag through the shuffle, so duplicate option texts cannot confuse it.
func Normalize(raw domain.RawQuestion, ordinal int, rnd *rand.Rand) domain.Question {
	type choice struct {
		text      string
		isCorrect bool
	}

	choices := make([]choice, 0, len(raw.IncorrectAnswers)+1)
	choices = append(choices, choice{
		text:      DecodeEntities(raw.CorrectAnswer),
		isCorrect: true,
	})
	for _, incorrect := range raw.IncorrectAnswers {
		choices = append(choices, choice{text: DecodeEntities(incorrect)})
	}

	shuffle := rand.Shuffle
	if rnd != nil {
		shuffle = rnd.Shuffle
	}
	shuffle(len(choices), func(i, j int) {
		choices[i], choices[j] = choices[j], choices[i]
	})

	options := make([]string, len(choices))
	correctIndex := -1
	for idx, candidate := range choices {
		options[idx] = candidate.text
		if candidate.isCorrect {
			correctIndex = idx
		}
	}

	return domain.Question{
		ID:           strconv.Itoa(ordinal + 1),
		Text:         DecodeEntities(raw.Question),
		Options:      options,
		CorrectIndex: correctIndex,
		Category:     DecodeEntities(raw.Category),
		Difficulty:   raw.Difficulty,
	}
}
