// Package intent decides whether a short chat reply means yes, no, or
// something else. Colloquial Korean replies are cheap to match with keyword
// rules; only genuinely ambiguous replies are worth an NLU round-trip.
package intent

import (
	"context"
	"strings"

	"golang.org/x/text/width"

	"github.com/jihoonhan/dolbomi/internal/nlu"
)

type Label string

const (
	Yes   Label = "yes"
	No    Label = "no"
	Other Label = "other"
)

var affirmative = []string{
	"응", "네", "예", "그래", "좋아", "좋지", "맞아", "웅", "그러자", "해줘", "등록", "부탁", "ㅇㅇ", "ok", "yes",
}

var negative = []string{
	"아니", "아냐", "싫어", "괜찮아", "됐어", "안할", "안 할", "하지마", "취소", "ㄴㄴ", "no",
}

const fallbackSystem = `사용자의 짧은 대답이 직전 질문에 대한 긍정인지 부정인지 판별하세요.
반드시 yes, no, other 중 하나의 단어로만 답하세요.
- yes: 동의/승낙
- no: 거절/부정
- other: 둘 다 아니거나 주제가 바뀜`

// Classifier applies keyword rules first and asks the NLU backend only when
// the rules disagree or say nothing.
type Classifier struct {
	client nlu.Client
}

func New(client nlu.Client) *Classifier {
	return &Classifier{client: client}
}

func (c *Classifier) Classify(ctx context.Context, reply string) Label {
	// Fold full-width forms ("ｏｋ") so keyword matching is width-insensitive.
	compact := strings.ToLower(width.Narrow.String(strings.Join(strings.Fields(reply), "")))
	if compact == "" {
		return Other
	}

	yes := containsAny(compact, affirmative)
	no := containsAny(compact, negative)
	switch {
	case yes && !no:
		return Yes
	case no && !yes:
		return No
	}

	if c.client == nil {
		return Other
	}
	raw, err := c.client.Complete(ctx, nlu.Request{
		System: fallbackSystem,
		User:   reply,
	})
	if err != nil {
		return Other
	}
	return parseLabel(raw)
}

func parseLabel(raw string) Label {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.Trim(normalized, `"'.! `)
	switch normalized {
	case "yes":
		return Yes
	case "no":
		return No
	}
	// The backend sometimes pads the label with prose despite instructions.
	switch {
	case strings.Contains(normalized, "yes"):
		return Yes
	case strings.Contains(normalized, "no"):
		return No
	default:
		return Other
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		needle := strings.Join(strings.Fields(kw), "")
		if needle != "" && strings.Contains(s, needle) {
			return true
		}
	}
	return false
}
