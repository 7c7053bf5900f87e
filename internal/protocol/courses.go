package protocol

import (
	"context"
	"html"
	"net/http"
	"regexp"
	"strconv"
	"strings"
)

type Course struct {
	ID   int
	Name string
}

var courseLinkPattern = regexp.MustCompile(`(?s)href="toSubject\.jhtml\?courseId=(\d+)".*?<div class="mui-media-body".*?>(.*?)</div>`)

// ListCourses scrapes the course page visible to the session.
func (c *Client) ListCourses(ctx context.Context) ([]Course, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+coursesPath, nil)
	if err != nil {
		return nil, err
	}
	request.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
	request.Header.Set("Accept-Language", "en-US,en;q=0.9")
	request.Header.Set("Cache-Control", "max-age=0")
	request.Header.Set("Connection", "keep-alive")
	request.Header.Set("Referer", c.baseURL+homePagePath)
	request.Header.Set("Upgrade-Insecure-Requests", "1")
	request.Header.Set("User-Agent", userAgent)
	request.Header.Set("Cookie", "JSESSIONID="+c.session)

	body, err := c.do(request)
	if err != nil {
		return nil, err
	}
	return parseCourses(string(body)), nil
}

func parseCourses(page string) []Course {
	courses := make([]Course, 0)
	seen := make(map[int]bool)
	for _, match := range courseLinkPattern.FindAllStringSubmatch(page, -1) {
		id, err := strconv.Atoi(match[1])
		if err != nil || seen[id] {
			continue
		}
		name := strings.TrimSpace(html.UnescapeString(match[2]))
		if name == "" {
			continue
		}
		seen[id] = true
		courses = append(courses, Course{ID: id, Name: name})
	}
	return courses
}
