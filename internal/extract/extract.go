// Package extract pulls structured payloads out of NLU responses. The
// backend is instructed to answer with bare JSON but routinely wraps it in
// explanatory prose, so parsing tolerates surrounding text and degrades to
// "nothing found" instead of erroring.
package extract

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// Candidate is the validated shape of a todo-extraction response.
// Date and Time stay in the user's own words ("내일", "오전 10시");
// resolution to calendar values happens later in internal/kdate.
type Candidate struct {
	HasTodo bool
	Task    string
	Date    string
	Time    string
}

// Object returns the first JSON object found in raw, or false when none
// parses. Direct parse is tried first; otherwise the first balanced-brace
// substring is taken.
func Object(raw string) (map[string]any, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, false
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(trimmed), &obj); err == nil {
		return obj, true
	}

	sub, ok := firstJSONObject(trimmed)
	if !ok {
		return nil, false
	}
	if err := json.Unmarshal([]byte(sub), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// TodoCandidate parses a todo-extraction response. ok is false when no JSON
// object could be recovered at all; a recovered object with has_todo=false
// or an empty task comes back as a zero Candidate with ok=true.
func TodoCandidate(raw string) (Candidate, bool) {
	sub, ok := jsonBody(raw)
	if !ok {
		return Candidate{}, false
	}

	c := Candidate{
		HasTodo: gjson.Get(sub, "has_todo").Bool(),
		Task:    strings.TrimSpace(gjson.Get(sub, "task").String()),
		Date:    strings.TrimSpace(gjson.Get(sub, "date").String()),
		Time:    strings.TrimSpace(gjson.Get(sub, "time").String()),
	}
	if !c.HasTodo || c.Task == "" {
		return Candidate{}, true
	}
	return c, true
}

func jsonBody(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	if gjson.Valid(trimmed) && strings.HasPrefix(trimmed, "{") {
		return trimmed, true
	}
	sub, ok := firstJSONObject(trimmed)
	if !ok || !gjson.Valid(sub) {
		return "", false
	}
	return sub, true
}

// firstJSONObject scans for the first balanced-brace region. Braces inside
// JSON strings are skipped so prose like `{"task": "약 사기 {중요}"}` stays
// intact.
func firstJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
