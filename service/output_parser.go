package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tieubaoca/studytool-be/types"
)

// Model output goes through two stages. The structural stage finds a JSON
// array in free text and decodes it into loose records without trusting any
// field. The validation stage turns each record into a Verdict, either a
// typed item or a rejection reason.

// Verdict is the outcome of validating one candidate record. Reason is empty
// exactly when the item is valid.
type Verdict[T any] struct {
	Item   T
	Reason string
}

func Valid[T any](item T) Verdict[T] { return Verdict[T]{Item: item} }

func Rejected[T any](reason string) Verdict[T] { return Verdict[T]{Reason: reason} }

func (v Verdict[T]) IsValid() bool { return v.Reason == "" }

type Rejection struct {
	Index  int
	Reason string
}

// ParseResult holds the valid items in model order plus what was dropped.
type ParseResult[T any] struct {
	Items     []T
	Rejected  []Rejection
	Requested int
}

func (r *ParseResult[T]) Shortfall() bool { return len(r.Items) != r.Requested }

// candidate is a structurally decoded record with lower-cased keys.
type candidate map[string]json.RawMessage

var wrapperKeys = []string{"flashcards", "cards", "questions", "quiz", "items", "data"}

// ParseFlashcards extracts flashcards from raw model output. Cards without a
// non-empty front and back are dropped.
func ParseFlashcards(raw string, count int) (*ParseResult[types.Flashcard], error) {
	candidates, err := decodeCandidates(raw)
	if err != nil {
		return nil, err
	}
	result := &ParseResult[types.Flashcard]{Items: []types.Flashcard{}, Requested: count}
	for i, c := range candidates {
		v := validateFlashcard(c)
		if !v.IsValid() {
			result.Rejected = append(result.Rejected, Rejection{Index: i, Reason: v.Reason})
			continue
		}
		result.Items = append(result.Items, v.Item)
	}
	if len(result.Items) == 0 {
		return nil, fmt.Errorf("%w: none of %d flashcards were valid", types.ErrGenerationParse, len(candidates))
	}
	return result, nil
}

// ParseQuiz extracts quiz questions from raw model output. A question that
// lacks four options or a resolvable correct option is dropped whole.
func ParseQuiz(raw string, count int) (*ParseResult[types.QuizQuestion], error) {
	candidates, err := decodeCandidates(raw)
	if err != nil {
		return nil, err
	}
	result := &ParseResult[types.QuizQuestion]{Items: []types.QuizQuestion{}, Requested: count}
	for i, c := range candidates {
		v := validateQuizQuestion(c)
		if !v.IsValid() {
			result.Rejected = append(result.Rejected, Rejection{Index: i, Reason: v.Reason})
			continue
		}
		result.Items = append(result.Items, v.Item)
	}
	if len(result.Items) == 0 {
		return nil, fmt.Errorf("%w: none of %d questions were valid", types.ErrGenerationParse, len(candidates))
	}
	return result, nil
}

func decodeCandidates(raw string) ([]candidate, error) {
	for _, block := range structuralBlocks(raw) {
		items, ok := decodeArray(block)
		if !ok {
			continue
		}
		candidates := make([]candidate, 0, len(items))
		for _, item := range items {
			var obj map[string]json.RawMessage
			if err := json.Unmarshal(item, &obj); err != nil {
				// not an object; kept so it is reported as rejected
				candidates = append(candidates, candidate{})
				continue
			}
			c := make(candidate, len(obj))
			for k, v := range obj {
				c[strings.ToLower(strings.TrimSpace(k))] = v
			}
			candidates = append(candidates, c)
		}
		return candidates, nil
	}
	return nil, fmt.Errorf("%w: no JSON structure found in model output", types.ErrGenerationParse)
}

// structuralBlocks lists the texts worth trying, most specific first: the
// bodies of fenced code blocks, then the whole output.
func structuralBlocks(raw string) []string {
	var blocks []string
	rest := raw
	for {
		start := strings.Index(rest, "```")
		if start < 0 {
			break
		}
		body := rest[start+3:]
		end := strings.Index(body, "```")
		if end < 0 {
			break
		}
		fenced := body[:end]
		// Drop the language tag on the opening line
		if nl := strings.IndexByte(fenced, '\n'); nl >= 0 && !strings.ContainsAny(fenced[:nl], "[{") {
			fenced = fenced[nl+1:]
		}
		blocks = append(blocks, fenced)
		rest = body[end+3:]
	}
	return append(blocks, raw)
}

// decodeArray finds a JSON array in text, either bare or wrapped in an
// object under one of the wrapper keys. A lone object counts as a
// one-element array. Prose on either side may contain brackets, so each
// opening bracket is tried in turn and only one value is decoded from it.
func decodeArray(text string) ([]json.RawMessage, bool) {
	for start := strings.IndexByte(text, '['); start >= 0; start = nextIndex(text, '[', start) {
		var items []json.RawMessage
		if decodeLeading(text[start:], &items) && hasObject(items) {
			return items, true
		}
	}
	for start := strings.IndexByte(text, '{'); start >= 0; start = nextIndex(text, '{', start) {
		var single json.RawMessage
		var obj map[string]json.RawMessage
		if !decodeLeading(text[start:], &single) || json.Unmarshal(single, &obj) != nil {
			continue
		}
		lowered := make(map[string]json.RawMessage, len(obj))
		for k, v := range obj {
			lowered[strings.ToLower(k)] = v
		}
		for _, key := range wrapperKeys {
			inner, found := lowered[key]
			if !found {
				continue
			}
			var items []json.RawMessage
			if err := json.Unmarshal(inner, &items); err == nil {
				return items, true
			}
		}
		return []json.RawMessage{single}, true
	}
	return nil, false
}

// decodeLeading decodes the first JSON value in text and ignores whatever
// follows it.
func decodeLeading(text string, v any) bool {
	return json.NewDecoder(strings.NewReader(text)).Decode(v) == nil
}

func nextIndex(text string, b byte, after int) int {
	i := strings.IndexByte(text[after+1:], b)
	if i < 0 {
		return -1
	}
	return after + 1 + i
}

func hasObject(items []json.RawMessage) bool {
	for _, item := range items {
		if trimmed := bytes.TrimSpace(item); len(trimmed) > 0 && trimmed[0] == '{' {
			return true
		}
	}
	return false
}

// field returns the first present alias as a trimmed string. Numbers and
// booleans are accepted as their literal text.
func (c candidate) field(aliases ...string) string {
	for _, alias := range aliases {
		raw, ok := c[alias]
		if !ok {
			continue
		}
		if s, ok := looseString(raw); ok && s != "" {
			return s
		}
	}
	return ""
}

func looseString(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), true
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b), true
	}
	return "", false
}

func validateFlashcard(c candidate) Verdict[types.Flashcard] {
	front := c.field("front", "question", "term")
	back := c.field("back", "answer", "definition")
	switch {
	case front == "":
		return Rejected[types.Flashcard]("missing front")
	case back == "":
		return Rejected[types.Flashcard]("missing back")
	}
	return Valid(types.Flashcard{Front: front, Back: back})
}

func validateQuizQuestion(c candidate) Verdict[types.QuizQuestion] {
	question := c.field("question", "prompt")
	if question == "" {
		return Rejected[types.QuizQuestion]("missing question text")
	}
	options, reason := quizOptions(c)
	if reason != "" {
		return Rejected[types.QuizQuestion](reason)
	}
	correct, ok := resolveCorrectOption(c)
	if !ok {
		return Rejected[types.QuizQuestion]("correctOption is missing or not in 1..4")
	}
	q := types.QuizQuestion{
		Question:      question,
		OptionA:       options[0],
		OptionB:       options[1],
		OptionC:       options[2],
		OptionD:       options[3],
		CorrectOption: correct,
	}
	if err := q.Validate(); err != nil {
		return Rejected[types.QuizQuestion](err.Error())
	}
	return Valid(q)
}

func quizOptions(c candidate) ([4]string, string) {
	var options [4]string
	named := 0
	for i, key := range []string{"optiona", "optionb", "optionc", "optiond"} {
		if _, ok := c[key]; ok {
			named++
		}
		options[i] = c.field(key)
	}
	if named > 0 {
		for _, opt := range options {
			if opt == "" {
				return options, "options must be four non-empty texts"
			}
		}
		return options, ""
	}

	raw, ok := c["options"]
	if !ok {
		return options, "missing options"
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return options, "options is not a list"
	}
	if len(list) != 4 {
		return options, fmt.Sprintf("expected 4 options, got %d", len(list))
	}
	for i, item := range list {
		s, ok := looseString(item)
		if !ok || s == "" {
			return options, "options must be four non-empty texts"
		}
		options[i] = s
	}
	return options, ""
}

// resolveCorrectOption accepts 1..4 as a JSON integer, a numeric string or a
// letter A..D. Nothing else is interpreted.
func resolveCorrectOption(c candidate) (int, bool) {
	var raw json.RawMessage
	for _, key := range []string{"correctoption", "correct_option", "answer", "correct"} {
		if v, ok := c[key]; ok {
			raw = v
			break
		}
	}
	if raw == nil {
		return 0, false
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		if f != math.Trunc(f) {
			return 0, false
		}
		return inRange(int(f))
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return inRange(n)
	}
	if len(s) == 1 {
		switch strings.ToUpper(s) {
		case "A":
			return 1, true
		case "B":
			return 2, true
		case "C":
			return 3, true
		case "D":
			return 4, true
		}
	}
	return 0, false
}

func inRange(n int) (int, bool) {
	if n < 1 || n > 4 {
		return 0, false
	}
	return n, true
}
