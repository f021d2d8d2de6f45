package cartellino

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"cartellino/internal/domain"
)

// dayHeader is the anchored "DD XX" prefix of a day line.
type dayHeader struct {
	Day  int
	DOW  domain.DayOfWeek
	Rest string
}

// lexDayHeader matches a trimmed line starting with a two-digit day number
// (01-31), whitespace, and a day-of-week code that is not followed by another
// word character. Rest is whatever follows the code.
func lexDayHeader(line string) (dayHeader, bool) {
	s := strings.TrimSpace(line)
	if len(s) < 2 || !isDigit(s[0]) || !isDigit(s[1]) {
		return dayHeader{}, false
	}
	day := int(s[0]-'0')*10 + int(s[1]-'0')
	if day < 1 || day > 31 {
		return dayHeader{}, false
	}

	i := 2
	spaces := 0
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !unicode.IsSpace(r) {
			break
		}
		i += size
		spaces++
	}
	if spaces == 0 || len(s)-i < 2 {
		return dayHeader{}, false
	}

	dow := domain.DayOfWeek(s[i : i+2])
	if !dow.Valid() {
		return dayHeader{}, false
	}
	i += 2
	if i < len(s) {
		if r, _ := utf8.DecodeRuneInString(s[i:]); isWordRune(r) {
			return dayHeader{}, false
		}
	}

	return dayHeader{Day: day, DOW: dow, Rest: s[i:]}, true
}

// numericTokens returns the whitespace-separated numeric tokens of s in order.
func numericTokens(s string) []string {
	var out []string
	for _, tok := range strings.Fields(s) {
		if IsNumericToken(tok) {
			out = append(out, tok)
		}
	}
	return out
}

// clockEvent is one E/U punch found on a line.
type clockEvent struct {
	Kind domain.EventKind
	Time string
}

// lexEvents scans line left to right for punch markers: an E or U starting a
// word, optional whitespace, an optional "(", an HH:MM time and an optional
// ")". Matches do not overlap.
func lexEvents(line string) []clockEvent {
	var events []clockEvent
	i := 0
	for i < len(line) {
		c := line[i]
		if (c == 'E' || c == 'U') && wordBoundaryBefore(line, i) {
			if ev, end, ok := lexEventAt(line, i); ok {
				events = append(events, ev)
				i = end
				continue
			}
		}
		i++
	}
	return events
}

// validClock accepts 00:00 through 23:59 and the end-of-day 24:00.
func validClock(t string) bool {
	h := int(t[0]-'0')*10 + int(t[1]-'0')
	m := int(t[3]-'0')*10 + int(t[4]-'0')
	return m < 60 && (h < 24 || (h == 24 && m == 0))
}

func lexEventAt(line string, start int) (clockEvent, int, bool) {
	i := start + 1
	for i < len(line) {
		r, size := utf8.DecodeRuneInString(line[i:])
		if !unicode.IsSpace(r) {
			break
		}
		i += size
	}
	if i < len(line) && line[i] == '(' {
		i++
	}
	if len(line)-i < 5 ||
		!isDigit(line[i]) || !isDigit(line[i+1]) || line[i+2] != ':' ||
		!isDigit(line[i+3]) || !isDigit(line[i+4]) {
		return clockEvent{}, 0, false
	}
	t := line[i : i+5]
	if !validClock(t) {
		return clockEvent{}, 0, false
	}
	i += 5
	if i < len(line) && line[i] == ')' {
		i++
	}
	return clockEvent{Kind: domain.EventKind(line[start : start+1]), Time: t}, i, true
}

func wordBoundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
