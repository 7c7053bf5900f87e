package protocol

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"quiz-autopilot/internal/cipher"
)

const (
	DefaultBaseURL = "http://112.5.88.114:31101"

	nextSubjectPath = "/yiban-web/stu/nextSubject.jhtml"
	submitPath      = "/yiban-web/stu/changeSituation.jhtml"
	toSubjectPath   = "/yiban-web/stu/toSubject.jhtml"
	coursesPath     = "/yiban-web/stu/toCourse.jhtml"
	homePagePath    = "/yiban-web/stu/homePage.jhtml"

	userAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Safari/537.36"
	maxResponseSize = 1 << 20
)

type Config struct {
	BaseURL string
	// Session is the JSESSIONID value; it is sent as-is and never refreshed.
	Session    string
	HTTPClient *http.Client
}

// Client speaks the quiz service's next-question / submit-answer protocol.
// It holds no per-request state and performs no retries.
type Client struct {
	baseURL    string
	session    string
	codec      *cipher.Codec
	httpClient *http.Client
}

func NewClient(cfg Config, codec *cipher.Codec) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if codec == nil {
		codec = defaultCodec()
	}

	return &Client{
		baseURL:    baseURL,
		session:    cfg.Session,
		codec:      codec,
		httpClient: httpClient,
	}
}

func defaultCodec() *cipher.Codec {
	codec, err := cipher.NewCodec(cipher.DefaultKey)
	if err != nil {
		panic(fmt.Sprintf("protocol: default key rejected: %v", err))
	}
	return codec
}

func (c *Client) setAjaxHeaders(header http.Header, courseID int) {
	header.Set("Accept", "application/json")
	header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("Content-Type", "application/x-www-form-urlencoded")
	header.Set("Origin", c.baseURL)
	header.Set("Pragma", "no-cache")
	header.Set("Cookie", "JSESSIONID="+c.session)
	header.Set("User-Agent", userAgent)
	header.Set("Referer", c.baseURL+toSubjectPath+"?courseId="+strconv.Itoa(courseID))
	header.Set("X-Requested-With", "XMLHttpRequest")
}

func (c *Client) postForm(ctx context.Context, path string, courseID int, form url.Values) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	c.setAjaxHeaders(request.Header, courseID)
	return c.do(request)
}

func (c *Client) do(request *http.Request) ([]byte, error) {
	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrServiceUnavailable, err)
	}

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return nil, &APIError{StatusCode: response.StatusCode, Message: response.Status}
	}
	return body, nil
}
