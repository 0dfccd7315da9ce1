package internal

type Question struct {
	ID      int    `json:"id"`
	Content string `json:"content"`
	Used    bool   `json:"useFlag"`
}

// QuestionPool is the per-game set of prompts. Entries are handed out in order
// and never reused within the same game.
type QuestionPool struct {
	items []Question
}

func NewQuestionPool(questions []Question) *QuestionPool {
	items := make([]Question, len(questions))
	copy(items, questions)
	return &QuestionPool{items: items}
}

// ClaimNext returns the first unused question and marks it used.
func (p *QuestionPool) ClaimNext() (Question, error) {
	if p == nil {
		return Question{}, ErrPoolExhausted
	}
	for i := range p.items {
		if !p.items[i].Used {
			p.items[i].Used = true
			return p.items[i], nil
		}
	}
	return Question{}, ErrPoolExhausted
}

func (p *QuestionPool) Remaining() int {
	if p == nil {
		return 0
	}
	n := 0
	for _, q := range p.items {
		if !q.Used {
			n++
		}
	}
	return n
}

func (p *QuestionPool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.items)
}
