package suggestions

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseError carries the item the parse failed for plus the raw model text
// so the failure can be diagnosed offline.
type ParseError struct {
	Category string
	Raw      string
	Reason   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse failed for %q: %s", e.Category, e.Reason)
}

// ParsePost converts raw model output into a Post. The model is asked for
// JSON but cannot be held to it, so parsing is deliberately lenient: a
// markdown code fence is stripped, strict JSON decode is attempted, and a
// labeled-line format is the fallback. Empty fields after trimming are
// allowed; a missing content field is not.
func ParsePost(category, raw string) (*Post, error) {
	text := StripCodeFence(raw)

	if post, ok := parseJSONPost(text); ok {
		return post, nil
	}
	if post, ok := parseLabeledPost(text); ok {
		return post, nil
	}
	return nil, &ParseError{Category: category, Raw: raw, Reason: "output is neither post JSON nor labeled text"}
}

// StripCodeFence removes a wrapping ```json ... ``` (or bare ```) fence.
// Input without a fence is returned trimmed but otherwise untouched.
func StripCodeFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		head := strings.TrimSpace(text[:nl])
		// Opening fence may carry a language tag ("json"); anything longer is
		// content, not a tag.
		if head == "" || len(head) <= 10 && !strings.ContainsAny(head, " \t{") {
			text = text[nl+1:]
		}
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

func parseJSONPost(text string) (*Post, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, false
	}
	if _, ok := obj["content"]; !ok {
		return nil, false
	}

	content, ok := obj["content"].(string)
	if !ok {
		return nil, false
	}

	post := &Post{
		Content:  strings.TrimSpace(content),
		Hashtags: []string{},
	}

	if cta, ok := obj["callToAction"].(string); ok {
		post.CallToAction = strings.TrimSpace(cta)
	}

	if rawTags, ok := obj["hashtags"].([]any); ok {
		for _, t := range rawTags {
			s, ok := t.(string)
			if !ok {
				continue
			}
			if tag := cleanHashtag(s); tag != "" {
				post.Hashtags = append(post.Hashtags, tag)
			}
		}
	}
	return post, true
}

// parseLabeledPost handles the "Content: ...\nHashtags: ...\nCall to Action:
// ..." shape some completions fall back to. Labels are recognized only at
// the start of a line, case-insensitively; a field's value runs from its
// label to the next labeled line. Lines before the first label are ignored.
func parseLabeledPost(text string) (*Post, bool) {
	type section struct {
		label string
		lines []string
	}
	var sections []section

	for _, line := range strings.Split(text, "\n") {
		if label, rest, ok := matchFieldLabel(line); ok {
			sections = append(sections, section{label: label, lines: []string{rest}})
			continue
		}
		if len(sections) > 0 {
			last := &sections[len(sections)-1]
			last.lines = append(last.lines, line)
		}
	}

	post := &Post{Hashtags: []string{}}
	hasContent := false
	for _, s := range sections {
		value := strings.TrimSpace(strings.Join(s.lines, "\n"))
		switch s.label {
		case "content":
			post.Content = value
			hasContent = true
		case "hashtags":
			for _, part := range strings.Split(value, ",") {
				if tag := cleanHashtag(part); tag != "" {
					post.Hashtags = append(post.Hashtags, tag)
				}
			}
		case "calltoaction":
			post.CallToAction = value
		}
	}
	if !hasContent {
		return nil, false
	}
	return post, true
}

var fieldLabels = []struct {
	prefix string
	label  string
}{
	{"content:", "content"},
	{"hashtags:", "hashtags"},
	{"call to action:", "calltoaction"},
	{"calltoaction:", "calltoaction"},
}

// matchFieldLabel reports whether line begins with a known field label. The
// comparison is a byte-length-preserving fold over the original line, so
// offsets stay valid for any input encoding (no lowered-copy indexing).
func matchFieldLabel(line string) (label, rest string, ok bool) {
	trimmed := strings.TrimSpace(line)
	for _, f := range fieldLabels {
		if len(trimmed) >= len(f.prefix) && strings.EqualFold(trimmed[:len(f.prefix)], f.prefix) {
			return f.label, trimmed[len(f.prefix):], true
		}
	}
	return "", "", false
}

func cleanHashtag(raw string) string {
	tag := strings.TrimSpace(raw)
	tag = strings.TrimLeft(tag, "#")
	return strings.TrimSpace(tag)
}
