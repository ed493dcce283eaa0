package memory

import (
	"context"

	"trivia-quiz-service/internal/domain"
)

// StaticQuestionSource serves a fixed question bank (useful for tests, demos and offline play).
type StaticQuestionSource struct {
	questions []domain.RawQuestion
}

func NewStaticQuestionSource(questions []domain.RawQuestion) *StaticQuestionSource {
	return &StaticQuestionSource{questions: questions}
}

// FetchQuestions returns up to amount questions from the bank.
func (s *StaticQuestionSource) FetchQuestions(ctx context.Context, amount int) ([]domain.RawQuestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(s.questions) == 0 {
		return nil, domain.ErrNoQuestions
	}
	if amount <= 0 || amount > len(s.questions) {
		amount = len(s.questions)
	}
	out := make([]domain.RawQuestion, amount)
	copy(out, s.questions[:amount])
	return out, nil
}

// DefaultQuestionBank is the built-in offline bank. Text is entity-encoded like the remote API.
func DefaultQuestionBank() []domain.RawQuestion {
	return []domain.RawQuestion{
		{Type: "multiple", Difficulty: "easy", Category: "Science &amp; Nature", Question: "What is the chemical symbol for gold?", CorrectAnswer: "Au", IncorrectAnswers: []string{"Ag", "Gd", "Go"}},
		{Type: "multiple", Difficulty: "easy", Category: "Geography", Question: "What is the capital of Australia?", CorrectAnswer: "Canberra", IncorrectAnswers: []string{"Sydney", "Melbourne", "Perth"}},
		{Type: "boolean", Difficulty: "easy", Category: "Science: Computers", Question: "The &quot;Go&quot; programming language was created at Google.", CorrectAnswer: "True", IncorrectAnswers: []string{"False"}},
		{Type: "multiple", Difficulty: "medium", Category: "History", Question: "In which year did the Berlin Wall fall?", CorrectAnswer: "1989", IncorrectAnswers: []string{"1987", "1991", "1979"}},
		{Type: "multiple", Difficulty: "easy", Category: "Science &amp; Nature", Question: "Which planet is known as the Red Planet?", CorrectAnswer: "Mars", IncorrectAnswers: []string{"Venus", "Jupiter", "Mercury"}},
		{Type: "multiple", Difficulty: "medium", Category: "Entertainment: Books", Question: "Who wrote &quot;Pride and Prejudice&quot;?", CorrectAnswer: "Jane Austen", IncorrectAnswers: []string{"Charlotte Bronte", "Mary Shelley", "George Eliot"}},
		{Type: "multiple", Difficulty: "easy", Category: "Mathematics", Question: "What is 7 multiplied by 8?", CorrectAnswer: "56", IncorrectAnswers: []string{"54", "48", "64"}},
		{Type: "boolean", Difficulty: "medium", Category: "Animals", Question: "A group of crows is called a &quot;murder&quot;.", CorrectAnswer: "True", IncorrectAnswers: []string{"False"}},
		{Type: "multiple", Difficulty: "hard", Category: "Science: Computers", Question: "What does &quot;HTTP&quot; stand for?", CorrectAnswer: "HyperText Transfer Protocol", IncorrectAnswers: []string{"High Transfer Text Protocol", "HyperText Transmission Process", "Host Transfer Text Protocol"}},
		{Type: "multiple", Difficulty: "medium", Category: "Geography", Question: "Which river is the longest in Europe?", CorrectAnswer: "Volga", IncorrectAnswers: []string{"Danube", "Rhine", "Dnieper"}},
		{Type: "multiple", Difficulty: "easy", Category: "General Knowledge", Question: "How many continents are there?", CorrectAnswer: "7", IncorrectAnswers: []string{"5", "6", "8"}},
		{Type: "multiple", Difficulty: "medium", Category: "Art", Question: "Who painted &#039;The Starry Night&#039;?", CorrectAnswer: "Vincent van Gogh", IncorrectAnswers: []string{"Claude Monet", "Pablo Picasso", "Paul Gauguin"}},
		{Type: "multiple", Difficulty: "easy", Category: "Science &amp; Nature", Question: "What gas do plants absorb from the air?", CorrectAnswer: "Carbon dioxide", IncorrectAnswers: []string{"Oxygen", "Nitrogen", "Helium"}},
		{Type: "boolean", Difficulty: "easy", Category: "Sports", Question: "A marathon is longer than 40 kilometres.", CorrectAnswer: "True", IncorrectAnswers: []string{"False"}},
		{Type: "multiple", Difficulty: "hard", Category: "History", Question: "Which empire built Machu Picchu?", CorrectAnswer: "Inca", IncorrectAnswers: []string{"Aztec", "Maya", "Olmec"}},
	}
}
