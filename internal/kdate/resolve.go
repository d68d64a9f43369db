// Package kdate resolves Korean natural-language date and time expressions
// to calendar values, anchored to a caller-supplied "now". Only the phrasing
// that actually shows up in elder chat is covered; anything else fails
// resolution and the caller decides what to do with the raw text.
package kdate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

var (
	isoDateRe   = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	koreanMDRe  = regexp.MustCompile(`(\d{1,2})월(\d{1,2})일`)
	slashMDRe   = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})$`)
	clockRe     = regexp.MustCompile(`(\d{1,2}):(\d{2})`)
	hourMinRe   = regexp.MustCompile(`(\d{1,2})시(?:(\d{1,2})분|반)?`)
	nextWeekRe  = regexp.MustCompile(`다음주(?:([월화수목금토일])요일)?`)
	weekdayByKo = map[string]time.Weekday{
		"일": time.Sunday, "월": time.Monday, "화": time.Tuesday, "수": time.Wednesday,
		"목": time.Thursday, "금": time.Friday, "토": time.Saturday,
	}
)

// Resolve turns extracted date/time phrases into calendar values. date is
// empty when dateText does not resolve; t is nil when no time token is
// present (never defaulted to midnight).
func Resolve(dateText, timeText string, now time.Time) (date string, t *string) {
	if d, ok := ResolveDate(dateText, now); ok {
		date = d
	}
	if hm, ok := ResolveTime(timeText); ok {
		t = &hm
	}
	return date, t
}

// ResolveDate resolves a single date expression. Supported: 오늘/내일/모레,
// 다음주 [X요일], YYYY-MM-DD, M월 D일, M/D. Relative forms anchor to now's
// calendar day in its own location.
func ResolveDate(text string, now time.Time) (string, bool) {
	compact := stripSpace(text)
	if compact == "" {
		return "", false
	}
	today := now

	switch {
	case strings.Contains(compact, "오늘"):
		return today.Format(DateLayout), true
	case strings.Contains(compact, "내일"):
		return today.AddDate(0, 0, 1).Format(DateLayout), true
	case strings.Contains(compact, "모레"):
		return today.AddDate(0, 0, 2).Format(DateLayout), true
	}

	if m := nextWeekRe.FindStringSubmatch(compact); m != nil {
		// "다음주" pins to the same weekday one week out, then shifts within
		// that week when a weekday is named. "다음주 월요일" said on a Friday
		// is that coming Monday, not Monday eleven days away.
		base := today.AddDate(0, 0, 7)
		if m[1] != "" {
			target := weekdayByKo[m[1]]
			base = base.AddDate(0, 0, int(target)-int(base.Weekday()))
		}
		return base.Format(DateLayout), true
	}

	if m := isoDateRe.FindStringSubmatch(compact); m != nil {
		return buildDate(atoi(m[1]), atoi(m[2]), atoi(m[3]), now.Location())
	}
	if m := koreanMDRe.FindStringSubmatch(compact); m != nil {
		return buildDate(today.Year(), atoi(m[1]), atoi(m[2]), now.Location())
	}
	if m := slashMDRe.FindStringSubmatch(compact); m != nil {
		return buildDate(today.Year(), atoi(m[1]), atoi(m[2]), now.Location())
	}

	return "", false
}

// ResolveTime resolves a clock expression to 24-hour HH:MM. Supported:
// HH:MM, [오전|오후|아침|점심|저녁|밤] N시 [M분|반]. Absent or unparseable
// input returns false; there is deliberately no midnight fallback because a
// user cannot tell 00:00 apart from "no time given".
func ResolveTime(text string) (string, bool) {
	compact := stripSpace(text)
	if compact == "" {
		return "", false
	}

	if m := clockRe.FindStringSubmatch(compact); m != nil {
		h, min := atoi(m[1]), atoi(m[2])
		if h >= 0 && h <= 23 && min >= 0 && min <= 59 {
			return fmt.Sprintf("%02d:%02d", h, min), true
		}
		return "", false
	}

	m := hourMinRe.FindStringSubmatch(compact)
	if m == nil {
		return "", false
	}
	h := atoi(m[1])
	min := 0
	if m[2] != "" {
		min = atoi(m[2])
	} else if strings.Contains(compact, "반") {
		min = 30
	}
	if h < 0 || h > 23 || min < 0 || min > 59 {
		return "", false
	}

	switch {
	case hasAny(compact, "오후", "저녁", "밤", "점심"):
		if h < 12 {
			h += 12
		}
	case hasAny(compact, "오전", "아침", "새벽"):
		if h == 12 {
			h = 0
		}
	}
	return fmt.Sprintf("%02d:%02d", h, min), true
}

func buildDate(year, month, day int, loc *time.Location) (string, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return "", false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	// Reject normalized overflows like 2월 30일.
	if int(d.Month()) != month || d.Day() != day {
		return "", false
	}
	return d.Format(DateLayout), true
}

func hasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func stripSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
