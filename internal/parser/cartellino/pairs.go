package cartellino

import (
	"fmt"

	"cartellino/internal/domain"
)

const minutesPerDay = 24 * 60

// shiftAnchors are checked in order; the first closest anchor wins ties.
var shiftAnchors = []struct {
	label   domain.ShiftLabel
	minutes int
}{
	{domain.ShiftMorning, 8 * 60},
	{domain.ShiftAfternoon, 14 * 60},
	{domain.ShiftNight, 20 * 60},
}

// ParsePairs assembles E/U punches into entry/exit pairs using a pairMachine
// fed with every line in order.
func ParsePairs(lines []string, year, month *int) []domain.PairRecord {
	m := newPairMachine(year, month)
	for _, line := range lines {
		m.Feed(line)
	}
	return m.Finish()
}

type pendingEntry struct {
	time string
	raw  string
}

// pairMachine holds the pair assembly state carried across lines.
//
//	no day      --day header-->  in day
//	in day      --E-->           pending (any previous pending closes entry-only)
//	in day      --U-->           emits exit-only pair
//	pending     --U-->           emits complete pair, back to in day
//	any         --new day-->     pending closes entry-only, index resets
//	end of text                  pending closes entry-only
type pairMachine struct {
	year, month *int

	inDay   bool
	day     int
	dow     domain.DayOfWeek
	index   int
	pending *pendingEntry

	pairs []domain.PairRecord
}

func newPairMachine(year, month *int) *pairMachine {
	return &pairMachine{year: year, month: month}
}

// Feed processes one line: a day header first, then each punch on the line
// from left to right. Punches before the first day header are ignored.
func (m *pairMachine) Feed(line string) {
	if h, ok := lexDayHeader(line); ok {
		m.enterDay(h.Day, h.DOW)
	}
	if !m.inDay {
		return
	}
	for _, ev := range lexEvents(line) {
		switch ev.Kind {
		case domain.EventEntry:
			m.entry(ev.Time, line)
		case domain.EventExit:
			m.exit(ev.Time, line)
		}
	}
}

// Finish flushes any pending entry and returns every pair emitted so far.
func (m *pairMachine) Finish() []domain.PairRecord {
	m.flushPending()
	return m.pairs
}

func (m *pairMachine) enterDay(day int, dow domain.DayOfWeek) {
	if m.inDay && day == m.day && dow == m.dow {
		return
	}
	m.flushPending()
	m.inDay = true
	m.day = day
	m.dow = dow
	m.index = 0
}

func (m *pairMachine) entry(t, raw string) {
	m.flushPending()
	m.pending = &pendingEntry{time: t, raw: raw}
}

func (m *pairMachine) exit(t, raw string) {
	entry := m.pending
	m.pending = nil
	m.emit(entry, &t, &raw)
}

func (m *pairMachine) flushPending() {
	if m.pending == nil {
		return
	}
	entry := m.pending
	m.pending = nil
	m.emit(entry, nil, nil)
}

func (m *pairMachine) emit(entry *pendingEntry, exitTime, exitRaw *string) {
	rec := domain.PairRecord{
		Year:      copyInt(m.year),
		Month:     copyInt(m.month),
		Day:       m.day,
		DOW:       m.dow,
		PairIndex: m.index,
		ExitTime:  exitTime,
		ExitRaw:   exitRaw,
	}
	if entry != nil {
		et, er := entry.time, entry.raw
		rec.EntryTime = &et
		rec.EntryRaw = &er
		shift := ShiftFor(et)
		rec.ShiftLabel = &shift
		if exitTime != nil {
			d := Duration(et, *exitTime)
			rec.Duration = &d
		}
	}
	m.pairs = append(m.pairs, rec)
	m.index++
}

// Duration returns exit minus entry as zero-padded "HH:MM". "24:00" counts as
// midnight of the next day, and an exit earlier than the entry is taken to
// fall on the next day.
func Duration(entry, exit string) string {
	in := clockMinutes(entry)
	out := clockMinutes(exit)
	if out < in {
		out += minutesPerDay
	}
	d := out - in
	return fmt.Sprintf("%02d:%02d", d/60, d%60)
}

// ShiftFor returns the shift whose anchor time is nearest to the entry time.
func ShiftFor(entry string) domain.ShiftLabel {
	at := clockMinutes(entry) % minutesPerDay
	best := shiftAnchors[0]
	bestDist := absInt(at - best.minutes)
	for _, a := range shiftAnchors[1:] {
		if d := absInt(at - a.minutes); d < bestDist {
			best, bestDist = a, d
		}
	}
	return best.label
}

// clockMinutes converts an "HH:MM" string already validated by the lexer.
func clockMinutes(t string) int {
	h := int(t[0]-'0')*10 + int(t[1]-'0')
	m := int(t[3]-'0')*10 + int(t[4]-'0')
	return h*60 + m
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
