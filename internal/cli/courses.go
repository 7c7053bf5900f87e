package cli

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// Courses lists the courses visible to the configured session.
func Courses(ctx context.Context, env Env) error {
	if env.Config.Session == "" {
		return errors.New("a session token is required")
	}
	client, err := env.client()
	if err != nil {
		return err
	}

	courses, err := client.ListCourses(ctx)
	if err != nil {
		return errors.Wrap(err, "list courses")
	}
	if len(courses) == 0 {
		fmt.Fprintln(env.Out, "No courses found.")
		return nil
	}
	for _, course := range courses {
		fmt.Fprintf(env.Out, "%d\t%s\n", course.ID, course.Name)
	}
	return nil
}
