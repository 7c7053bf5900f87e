package bank

import (
	"path/filepath"
	"strconv"
)

// Bank is a read-only question index. It is filled once by Load or
// LoadReader and never mutated afterwards, so concurrent reads need no locking.
type Bank struct {
	questions  []Question
	byDescript map[string]int
	byID       map[int]int
}

func newBank() *Bank {
	return &Bank{
		byDescript: make(map[string]int),
		byID:       make(map[int]int),
	}
}

// add keeps the first question for a given description or id.
func (b *Bank) add(question Question) {
	idx := len(b.questions)
	b.questions = append(b.questions, question)
	if _, exists := b.byDescript[question.Description]; !exists {
		b.byDescript[question.Description] = idx
	}
	if _, exists := b.byID[question.ID]; !exists {
		b.byID[question.ID] = idx
	}
}

// GetByDescript returns the first question whose description equals text exactly.
func (b *Bank) GetByDescript(text string) (Question, bool) {
	idx, ok := b.byDescript[text]
	if !ok {
		return Question{}, false
	}
	return b.questions[idx], true
}

// Lookup is GetByDescript under the name the autopilot expects.
func (b *Bank) Lookup(description string) (Question, bool) {
	return b.GetByDescript(description)
}

func (b *Bank) GetByID(id int) (Question, bool) {
	idx, ok := b.byID[id]
	if !ok {
		return Question{}, false
	}
	return b.questions[idx], true
}

func (b *Bank) GetByCourse(courseID int) []Question {
	out := make([]Question, 0)
	for _, question := range b.questions {
		if question.CourseID == courseID {
			out = append(out, question)
		}
	}
	return out
}

// All returns a copy of every question in load order.
func (b *Bank) All() []Question {
	out := make([]Question, len(b.questions))
	copy(out, b.questions)
	return out
}

func (b *Bank) Size() int {
	return len(b.questions)
}

func (b *Bank) IsEmpty() bool {
	return len(b.questions) == 0
}

// PathForCourse returns the bank file for a course inside dir.
func PathForCourse(dir string, courseID int) string {
	return filepath.Join(dir, strconv.Itoa(courseID)+".csv")
}
