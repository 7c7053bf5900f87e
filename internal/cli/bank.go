package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"quiz-autopilot/internal/bank"
)

// BankStats prints how many usable questions the configured bank holds,
// per course.
func BankStats(env Env) error {
	path := env.Config.BankPath()
	answers := bank.Load(path, env.Log)

	fmt.Fprintf(env.Out, "Bank: %s\n", path)
	fmt.Fprintf(env.Out, "Questions: %d\n", answers.Size())

	perCourse := make(map[int]int)
	for _, question := range answers.All() {
		perCourse[question.CourseID]++
	}
	courseIDs := make([]int, 0, len(perCourse))
	for id := range perCourse {
		courseIDs = append(courseIDs, id)
	}
	sort.Ints(courseIDs)
	for _, id := range courseIDs {
		fmt.Fprintf(env.Out, "  course %d: %d\n", id, perCourse[id])
	}
	return nil
}

// BankLookup prints the stored answer for an exact question description.
func BankLookup(env Env, description string) error {
	if strings.TrimSpace(description) == "" {
		return errors.New("a question description is required")
	}

	answers := bank.Load(env.Config.BankPath(), env.Log)
	question, ok := answers.Lookup(description)
	if !ok {
		return errors.Errorf("no answer for %q", description)
	}

	fmt.Fprintf(env.Out, "Q%d: %s\n\n", question.ID, question.Description)
	for idx, option := range question.Options {
		marker := " "
		if option == question.Answer {
			marker = "*"
		}
		fmt.Fprintf(env.Out, "%s %c. %s\n", marker, 'A'+idx, option)
	}
	fmt.Fprintf(env.Out, "\nAnswer: %s\n", question.Answer)
	return nil
}
