package protocol

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// CorrectMessage is the exact submit-answer message that signals a correct
// answer. Nothing else counts as correct.
const CorrectMessage = "回答正确！"

const unknownKind = "未知类型"

// RemoteQuestion is the decrypted form of one next-question response.
type RemoteQuestion struct {
	Description string
	Kind        string
	UUID        string
	Options     []string
}

func (q RemoteQuestion) String() string {
	return fmt.Sprintf("%s (%s, uuid=%s, %d options)", q.Description, q.Kind, q.UUID, len(q.Options))
}

type AnswerResult struct {
	IsCorrect bool
	Message   string
}

type nextSubjectResponse struct {
	Data *struct {
		UUID        json.RawMessage            `json:"uuid"`
		NextSubject map[string]json.RawMessage `json:"nextSubject"`
	} `json:"data"`
}

// FetchNextQuestion asks the service for the next question of a course and
// decrypts its description and options. Transport, status and shape problems
// are soft errors (see IsSoft); undecryptable fields are hard errors.
func (c *Client) FetchNextQuestion(ctx context.Context, courseID int) (*RemoteQuestion, error) {
	form := url.Values{}
	form.Set("courseId", strconv.Itoa(courseID))

	body, err := c.postForm(ctx, nextSubjectPath, courseID, form)
	if err != nil {
		return nil, err
	}

	var payload nextSubjectResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, malformed("decode next question: %v", err)
	}
	if payload.Data == nil || payload.Data.NextSubject == nil {
		return nil, malformed("next question has no data.nextSubject")
	}
	subject := payload.Data.NextSubject

	encryptedDescription, _ := jsonText(subject["subDescript"])
	if strings.TrimSpace(encryptedDescription) == "" {
		return nil, malformed("blank question description")
	}
	optionCount, err := jsonInt(subject["optionCount"])
	if err != nil {
		return nil, malformed("optionCount: %v", err)
	}
	// Every option is its own field, so a count above the field count can
	// never be satisfied.
	if optionCount > len(subject) {
		return nil, malformed("optionCount %d out of range", optionCount)
	}
	kind, ok := jsonText(subject["subType"])
	if !ok {
		kind = unknownKind
	}
	uuid, _ := jsonText(payload.Data.UUID)

	description, err := c.codec.Decrypt(encryptedDescription)
	if err != nil {
		return nil, fmt.Errorf("decrypt description: %w", err)
	}

	options := make([]string, 0, optionCount)
	for idx := 0; idx < optionCount; idx++ {
		encrypted, _ := jsonText(subject["option"+strconv.Itoa(idx)])
		if strings.TrimSpace(encrypted) == "" {
			continue
		}
		option, err := c.codec.Decrypt(encrypted)
		if err != nil {
			return nil, fmt.Errorf("decrypt option%d: %w", idx, err)
		}
		options = append(options, option)
	}

	return &RemoteQuestion{
		Description: description,
		Kind:        kind,
		UUID:        uuid,
		Options:     options,
	}, nil
}

// SubmitAnswer posts an answer for the question identified by uuid.
func (c *Client) SubmitAnswer(ctx context.Context, uuid, answer string, courseID int) (*AnswerResult, error) {
	form := url.Values{}
	form.Set("answer", answer)
	form.Set("courseId", strconv.Itoa(courseID))
	form.Set("uuid", uuid)
	form.Set("deviceUuid", "")

	body, err := c.postForm(ctx, submitPath, courseID, form)
	if err != nil {
		return nil, err
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, malformed("decode submit result: %v", err)
	}
	message, ok := jsonText(payload["message"])
	if !ok {
		return nil, malformed("submit result has no message")
	}

	return &AnswerResult{
		IsCorrect: message == CorrectMessage,
		Message:   message,
	}, nil
}

// jsonText returns a JSON string's value or a scalar's literal text. It
// reports false for absent or null values and for objects and arrays.
func jsonText(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}
	switch raw[0] {
	case '"':
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			return "", false
		}
		return value, true
	case '{', '[':
		return "", false
	}
	return string(raw), true
}

// jsonInt accepts a JSON number or a numeric string; absent means zero.
func jsonInt(raw json.RawMessage) (int, error) {
	text, ok := jsonText(raw)
	if !ok {
		return 0, nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, err
	}
	if value < 0 {
		return 0, fmt.Errorf("negative value %d", value)
	}
	return value, nil
}
