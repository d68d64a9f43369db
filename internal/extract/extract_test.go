package extract

import "testing"

func TestObjectDirectParse(t *testing.T) {
	obj, ok := Object(`{"has_todo": true, "task": "병원 가기"}`)
	if !ok {
		t.Fatalf("Object() ok = false, want true")
	}
	if obj["task"] != "병원 가기" {
		t.Fatalf("task = %v, want 병원 가기", obj["task"])
	}
}

func TestObjectTolerantOfSurroundingProse(t *testing.T) {
	raw := "알겠어요! 추출 결과는 다음과 같아요:\n" +
		`{"has_todo": true, "task": "병원 가기", "date": "내일", "time": null}` +
		"\n도움이 되었길 바라요."
	obj, ok := Object(raw)
	if !ok {
		t.Fatalf("Object() ok = false, want true")
	}
	if obj["date"] != "내일" {
		t.Fatalf("date = %v, want 내일", obj["date"])
	}
}

func TestObjectNestedBraces(t *testing.T) {
	raw := `result: {"tasks": [{"task": "약 먹기"}], "has_todo": true}`
	obj, ok := Object(raw)
	if !ok {
		t.Fatalf("Object() ok = false, want true")
	}
	if obj["has_todo"] != true {
		t.Fatalf("has_todo = %v, want true", obj["has_todo"])
	}
}

func TestObjectBracesInsideStrings(t *testing.T) {
	raw := `{"task": "메모 {중요} 정리", "has_todo": true}`
	obj, ok := Object(raw)
	if !ok {
		t.Fatalf("Object() ok = false, want true")
	}
	if obj["task"] != "메모 {중요} 정리" {
		t.Fatalf("task = %v", obj["task"])
	}
}

func TestObjectGarbage(t *testing.T) {
	for _, raw := range []string{"", "죄송해요, 잘 모르겠어요.", "{broken", "{{{"} {
		if _, ok := Object(raw); ok {
			t.Fatalf("Object(%q) ok = true, want false", raw)
		}
	}
}

func TestTodoCandidate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Candidate
		ok   bool
	}{
		{
			name: "full candidate",
			raw:  `{"has_todo": true, "task": "병원 가기", "date": "내일", "time": "오전 10시"}`,
			want: Candidate{HasTodo: true, Task: "병원 가기", Date: "내일", Time: "오전 10시"},
			ok:   true,
		},
		{
			name: "null date and time",
			raw:  `{"has_todo": true, "task": "약 먹기", "date": null, "time": null}`,
			want: Candidate{HasTodo: true, Task: "약 먹기"},
			ok:   true,
		},
		{
			name: "no todo",
			raw:  `{"has_todo": false}`,
			want: Candidate{},
			ok:   true,
		},
		{
			name: "todo flag without task",
			raw:  `{"has_todo": true, "task": "  "}`,
			want: Candidate{},
			ok:   true,
		},
		{
			name: "prose wrapped",
			raw:  "네! {\"has_todo\": true, \"task\": \"장보기\", \"date\": \"모레\"} 입니다.",
			want: Candidate{HasTodo: true, Task: "장보기", Date: "모레"},
			ok:   true,
		},
		{
			name: "no json at all",
			raw:  "오늘 날씨가 참 좋네요.",
			want: Candidate{},
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := TodoCandidate(tt.raw)
			if ok != tt.ok {
				t.Fatalf("TodoCandidate() ok = %v, want %v", ok, tt.ok)
			}
			if got != tt.want {
				t.Fatalf("TodoCandidate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
