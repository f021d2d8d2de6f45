package cartellino

import (
	"cartellino/internal/domain"
)

// ParseDays returns one DayRecord per day line, in document order. A day
// line with fewer than three numeric tokens after its day code is skipped.
func (p *Parser) ParseDays(lines []string, year, month *int) []domain.DayRecord {
	var records []domain.DayRecord
	for _, line := range lines {
		if rec, ok := p.parseDayLine(line, year, month); ok {
			records = append(records, rec)
		}
	}
	return records
}

func (p *Parser) parseDayLine(line string, year, month *int) (domain.DayRecord, bool) {
	h, ok := lexDayHeader(line)
	if !ok {
		return domain.DayRecord{}, false
	}

	tokens := numericTokens(h.Rest)
	if len(tokens) < 3 {
		p.debugf("cartellino.ParseDays: day line has fewer than 3 numeric tokens: %s", line)
		return domain.DayRecord{}, false
	}

	var hours [3]float64
	for i, tok := range tokens[len(tokens)-3:] {
		v, err := packedTokenHours(tok)
		if err != nil {
			p.debugf("cartellino.ParseDays: bad numeric token %q: %s", tok, line)
			return domain.DayRecord{}, false
		}
		hours[i] = v
	}

	return domain.DayRecord{
		Year:         copyInt(year),
		Month:        copyInt(month),
		Day:          h.Day,
		DOW:          h.DOW,
		HoursPresent: hours[0],
		HoursTotal:   hours[1],
		HoursWorked:  hours[2],
		RawLine:      line,
	}, true
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
