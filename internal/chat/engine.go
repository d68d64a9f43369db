// Package chat implements the per-conversation todo negotiation: it watches
// free-form turns for things the user needs to do, asks for confirmation and
// a date across turns, and reports a committed todo back to the caller.
package chat

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jihoonhan/dolbomi/internal/extract"
	"github.com/jihoonhan/dolbomi/internal/flow"
	"github.com/jihoonhan/dolbomi/internal/intent"
	"github.com/jihoonhan/dolbomi/internal/kdate"
	"github.com/jihoonhan/dolbomi/internal/nlu"
	"github.com/jihoonhan/dolbomi/internal/observability"
)

// Step is the closed set of outcomes a turn can have. Every consumer
// switches exhaustively over these; adding a state means updating them all.
type Step string

const (
	StepNone       Step = "none"
	StepSuggest    Step = "suggest"
	StepAskConfirm Step = "ask_confirm"
	StepAskDate    Step = "ask_date"
	StepSaved      Step = "saved"
	StepCancelled  Step = "cancelled"
)

// TurnResult fully describes what the engine did with one turn. HasTodo is
// true only for StepSaved, and then Date always carries a value (a resolved
// calendar date, or the user's own words when resolution failed). For
// StepSuggest/StepAskDate the Date/Time fields are still natural language.
type TurnResult struct {
	Step     Step   `json:"step"`
	HasTodo  bool   `json:"has_todo"`
	Task     string `json:"task,omitempty"`
	Date     string `json:"date,omitempty"`
	Time     string `json:"time,omitempty"`
	Response string `json:"response"`
}

const extractSystem = `당신은 노인 돌봄 채팅에서 할 일을 찾아내는 보조자입니다.
사용자의 메시지에 앞으로 해야 할 구체적인 일정이 있는지 판단하세요.
- 포함: 구체적 행동 (병원, 약속, 전화, 장보기, 약 먹기 등)
- 제외: 과거 이야기, 희망사항, 단순 잡담
반드시 JSON 으로만 답하세요:
{"has_todo": true/false, "task": "2~5단어 요약", "date": "날짜 표현 또는 null", "time": "시간 표현 또는 null"}
할 일이 없으면 {"has_todo": false} 만 답하세요.`

// registerKeywords mark an explicit, imperative "put this on my list"
// request, matched against the whitespace-stripped message.
var registerKeywords = []string{
	"등록해줘", "등록해주세요", "등록해둬", "등록좀",
	"추가해줘", "추가해주세요", "추가해둬",
	"넣어줘", "넣어주세요",
	"저장해줘", "저장해주세요",
	"기억해줘", "기억해주세요",
}

// Engine is the conversational task-extraction state machine. It never
// returns an error: every collaborator failure degrades to StepNone so the
// surrounding chat can always continue as ordinary conversation.
type Engine struct {
	client  nlu.Client
	flows   flow.Store
	intents *intent.Classifier
	metrics *observability.Metrics
	loc     *time.Location
	nowFn   func() time.Time
}

func NewEngine(client nlu.Client, flows flow.Store, intents *intent.Classifier, metrics *observability.Metrics, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.FixedZone("KST", 9*60*60)
	}
	return &Engine{
		client:  client,
		flows:   flows,
		intents: intents,
		metrics: metrics,
		loc:     loc,
		nowFn:   time.Now,
	}
}

// HandleTurn processes one inbound chat turn for (userID, conversationID).
func (e *Engine) HandleTurn(ctx context.Context, userID, conversationID, message string) (result TurnResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("chat: turn panic recovered user=%s conv=%s: %v", userID, conversationID, r)
			result = TurnResult{Step: StepNone}
		}
		e.observe(result.Step)
	}()

	if pending, ok := e.flows.Get(userID, conversationID); ok {
		return e.continueFlow(ctx, userID, conversationID, pending, message)
	}
	return e.detectCandidate(ctx, userID, conversationID, message)
}

func (e *Engine) continueFlow(ctx context.Context, userID, conversationID string, pending flow.Pending, message string) TurnResult {
	switch pending.State {
	case flow.StateAwaitingConfirmation:
		switch e.intents.Classify(ctx, message) {
		case intent.Yes:
			if pending.Date != "" {
				return e.commit(userID, conversationID, pending)
			}
			pending.State = flow.StateAwaitingDate
			e.flows.Put(userID, conversationID, pending)
			return TurnResult{
				Step:     StepAskDate,
				Task:     pending.Task,
				Time:     pending.Time,
				Response: askDateMessage(),
			}
		case intent.No:
			e.flows.Delete(userID, conversationID)
			return TurnResult{
				Step:     StepCancelled,
				Task:     pending.Task,
				Response: "알겠어요, 등록하지 않을게요.",
			}
		default:
			// Ambiguous or off-topic: abandon silently instead of nagging.
			e.flows.Delete(userID, conversationID)
			return TurnResult{Step: StepNone}
		}

	case flow.StateAwaitingDate:
		reply := strings.TrimSpace(message)
		if reply == "" {
			e.flows.Delete(userID, conversationID)
			return TurnResult{Step: StepNone}
		}
		// The whole reply is the date expression. The user answered a direct
		// question, so an unresolvable reply still commits with the raw text
		// rather than silently dropping the request.
		pending.Date = reply
		if pending.Time == "" {
			if hm, ok := kdate.ResolveTime(reply); ok {
				pending.Time = hm
			}
		}
		return e.commit(userID, conversationID, pending)

	default:
		// Unknown state can only come from a store backend bug; drop the flow.
		e.flows.Delete(userID, conversationID)
		return TurnResult{Step: StepNone}
	}
}

func (e *Engine) detectCandidate(ctx context.Context, userID, conversationID, message string) TurnResult {
	now := e.now()
	user := fmt.Sprintf("오늘은 %s(%s)입니다.\n\n다음 메시지에서 할 일을 추출하세요:\n%q",
		now.Format("2006-01-02"), koreanWeekday(now.Weekday()), message)

	raw, err := e.client.Complete(ctx, nlu.Request{
		System:   extractSystem,
		User:     user,
		WantJSON: true,
	})
	if err != nil {
		log.Printf("chat: extraction call failed user=%s: %v", userID, err)
		e.failure("extract")
		return TurnResult{Step: StepNone}
	}

	cand, ok := extract.TodoCandidate(raw)
	if !ok {
		log.Printf("chat: extraction response had no usable JSON user=%s", userID)
		e.failure("parse")
		return TurnResult{Step: StepNone}
	}
	if !cand.HasTodo || cand.Task == "" {
		return TurnResult{Step: StepNone}
	}

	if isRegisterRequest(message) {
		if cand.Date != "" {
			// The user explicitly asked and gave a date; no confirmation loop.
			return e.commit(userID, conversationID, flow.Pending{
				Task: cand.Task,
				Date: cand.Date,
				Time: cand.Time,
			})
		}
		e.flows.Put(userID, conversationID, flow.Pending{
			State: flow.StateAwaitingDate,
			Task:  cand.Task,
			Time:  cand.Time,
		})
		return TurnResult{
			Step:     StepAskDate,
			Task:     cand.Task,
			Time:     cand.Time,
			Response: askDateMessage(),
		}
	}

	// Passing mention: always confirm first, even when date and time are
	// already known — only the date question gets skipped later.
	e.flows.Put(userID, conversationID, flow.Pending{
		State: flow.StateAwaitingConfirmation,
		Task:  cand.Task,
		Date:  cand.Date,
		Time:  cand.Time,
	})
	return TurnResult{
		Step:     StepSuggest,
		Task:     cand.Task,
		Date:     cand.Date,
		Time:     cand.Time,
		Response: fmt.Sprintf("말씀하신 '%s', 할 일로 등록해 둘까요?", cand.Task),
	}
}

// commit resolves the negotiated date/time and emits the final Saved result.
// The flow is deleted first so no path can leave it dangling.
func (e *Engine) commit(userID, conversationID string, pending flow.Pending) TurnResult {
	e.flows.Delete(userID, conversationID)

	now := e.now()
	date, hm := kdate.Resolve(pending.Date, pending.Time, now)
	if date == "" {
		date = strings.TrimSpace(pending.Date)
	}

	result := TurnResult{
		Step:    StepSaved,
		HasTodo: true,
		Task:    pending.Task,
		Date:    date,
	}
	if hm != nil {
		result.Time = *hm
	}
	result.Response = savedMessage(result.Task, result.Date, result.Time)
	return result
}

func (e *Engine) now() time.Time {
	return e.nowFn().In(e.loc)
}

func (e *Engine) observe(step Step) {
	if e.metrics == nil {
		return
	}
	e.metrics.ChatTurns.WithLabelValues(string(step)).Inc()
	e.metrics.PendingFlows.Set(float64(e.flows.Len()))
}

func (e *Engine) failure(stage string) {
	if e.metrics != nil {
		e.metrics.NLUFailures.WithLabelValues(stage).Inc()
	}
}

func isRegisterRequest(message string) bool {
	compact := strings.Join(strings.Fields(message), "")
	for _, kw := range registerKeywords {
		if strings.Contains(compact, kw) {
			return true
		}
	}
	return false
}

func askDateMessage() string {
	return "좋아요! 언제 하실 일인가요? 날짜를 알려주세요. (예: 내일, 다음주 월요일)"
}

func savedMessage(task, date, hm string) string {
	if hm != "" {
		return fmt.Sprintf("네, '%s' 일정을 %s %s에 등록해 두었어요.", task, date, hm)
	}
	return fmt.Sprintf("네, '%s' 일정을 %s에 등록해 두었어요.", task, date)
}

func koreanWeekday(d time.Weekday) string {
	switch d {
	case time.Sunday:
		return "일요일"
	case time.Monday:
		return "월요일"
	case time.Tuesday:
		return "화요일"
	case time.Wednesday:
		return "수요일"
	case time.Thursday:
		return "목요일"
	case time.Friday:
		return "금요일"
	default:
		return "토요일"
	}
}
