package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// History prints the most recent runs from the journal, newest first.
func History(ctx context.Context, env Env, limit int) error {
	if !env.Config.HistoryEnabled() {
		return errors.New("history is disabled")
	}
	store, err := env.openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(ctx, limit)
	if err != nil {
		return errors.Wrap(err, "list runs")
	}
	fmt.Fprintf(env.Out, "Journal: %s\n", store.Path())
	if len(runs) == 0 {
		fmt.Fprintln(env.Out, "No runs recorded.")
		return nil
	}

	for _, run := range runs {
		status := "running"
		duration := ""
		if run.Finished() {
			status = run.Reason
			duration = run.EndedAt.Sub(run.StartedAt).Round(time.Second).String()
		}
		fmt.Fprintf(env.Out, "%s  %s  course %d  %d/%d correct  %s %s\n",
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.ID,
			run.CourseID,
			run.Correct,
			run.Answered,
			status,
			duration,
		)
	}
	return nil
}

// HistoryShow prints the confirmed submissions of one run in order.
func HistoryShow(ctx context.Context, env Env, runID string) error {
	if !env.Config.HistoryEnabled() {
		return errors.New("history is disabled")
	}
	store, err := env.openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	submissions, err := store.GetRunSubmissions(ctx, runID)
	if err != nil {
		return errors.Wrapf(err, "show run %s", runID)
	}
	if len(submissions) == 0 {
		fmt.Fprintln(env.Out, "No submissions recorded.")
		return nil
	}

	for _, submission := range submissions {
		verdict, color := "✗", colorIncorrect
		if submission.Correct {
			verdict, color = "✓", colorCorrect
		}
		fmt.Fprintf(env.Out, "%s %s %s => %s (%s)\n",
			submission.SubmittedAt.Local().Format("15:04:05"),
			stylize(verdict, env.NoColor, color),
			submission.Description,
			submission.Answer,
			submission.Message,
		)
	}
	return nil
}
