package intent

import (
	"regexp"
	"strings"
	"time"

	"alphabot/internal/modules/chatbot/domain/session"
)

const dateLayout = "2006-01-02"

var (
	isoDateRe   = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	monthYearRe = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{4})\b`)
)

var monthIndex = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

// NormalizeDate 校验并规范化单个日期, 非法日期返回缺省值
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || s == session.NotAvailable {
		return session.NotAvailable
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return session.NotAvailable
	}
	return t.Format(dateLayout)
}

// ExtractDateRange 从自由文本中提取日期区间.
// 依次尝试: 显式 ISO 日期, 月份+年份, 相对时间词. 未命中的一侧返回缺省值.
func ExtractDateRange(text string, now time.Time) (from, to string) {
	from, to = session.NotAvailable, session.NotAvailable

	if locs := isoDateRe.FindAllStringIndex(text, 2); len(locs) > 0 {
		first := text[locs[0][0]:locs[0][1]]
		if NormalizeDate(first) != session.NotAvailable {
			if len(locs) > 1 {
				second := text[locs[1][0]:locs[1][1]]
				if NormalizeDate(second) != session.NotAvailable {
					return first, second
				}
				return first, first
			}
			// 单个日期按前置介词归槽, 无线索时视为单日区间
			switch singleDateCue(text[:locs[0][0]]) {
			case cueFrom:
				return first, session.NotAvailable
			case cueTo:
				return session.NotAvailable, first
			default:
				return first, first
			}
		}
	}

	if m := monthYearRe.FindStringSubmatch(text); m != nil {
		month := monthIndex[strings.ToLower(m[1])]
		year, _ := time.Parse("2006", m[2])
		start := time.Date(year.Year(), month, 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, -1)
		return start.Format(dateLayout), end.Format(dateLayout)
	}

	return relativeRange(strings.ToLower(text), now)
}

type dateCue int

const (
	cueNone dateCue = iota
	cueFrom
	cueTo
)

// singleDateCue 看日期前面最近的词是开始还是结束介词
func singleDateCue(prefix string) dateCue {
	words := strings.Fields(strings.ToLower(prefix))
	if len(words) == 0 {
		return cueNone
	}
	switch words[len(words)-1] {
	case "from", "since", "starting", "after":
		return cueFrom
	case "to", "until", "till", "through", "before":
		return cueTo
	}
	return cueNone
}

func relativeRange(lower string, now time.Time) (string, string) {
	day := func(t time.Time) string { return t.Format(dateLayout) }
	monday := now.AddDate(0, 0, -int((now.Weekday()+6)%7))

	switch {
	case strings.Contains(lower, "today"):
		return day(now), day(now)
	case strings.Contains(lower, "yesterday"):
		y := now.AddDate(0, 0, -1)
		return day(y), day(y)
	case strings.Contains(lower, "last week"):
		start := monday.AddDate(0, 0, -7)
		return day(start), day(start.AddDate(0, 0, 6))
	case strings.Contains(lower, "this week"):
		return day(monday), day(now)
	case strings.Contains(lower, "last month"):
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		start := first.AddDate(0, -1, 0)
		return day(start), day(first.AddDate(0, 0, -1))
	case strings.Contains(lower, "this month"):
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return day(first), day(now)
	}
	return session.NotAvailable, session.NotAvailable
}
