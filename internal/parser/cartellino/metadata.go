package cartellino

import (
	"regexp"
	"strconv"
	"strings"

	"cartellino/internal/domain"
)

// space matches ASCII whitespace plus Unicode space separators such as the
// no-break spaces PDF extraction emits.
const space = `[\s\p{Zs}]`

var (
	periodPattern   = regexp.MustCompile(`RIEPILOGO PRESENZE/ASSENZE` + space + `*-` + space + `*([A-Z]+)` + space + `+(\d{4})`)
	employeePattern = regexp.MustCompile(`(?m)^([A-Z' ]+?)` + space + `*-` + space + `*(\d{4,})`)
)

// Period is the reporting month and year of a document. A month name that is
// not in the Italian month table leaves Month nil.
type Period struct {
	Month     *int
	Year      *int
	MonthName *string
}

// ExtractPeriod finds the "RIEPILOGO PRESENZE/ASSENZE - <MONTH> <YEAR>" header.
// It returns an empty Period when the header is absent.
func ExtractPeriod(text string) Period {
	m := periodPattern.FindStringSubmatch(text)
	if m == nil {
		return Period{}
	}
	name := strings.ToUpper(m[1])
	year, err := strconv.Atoi(m[2])
	if err != nil {
		return Period{}
	}
	p := Period{Year: &year, MonthName: &name}
	if month, ok := MonthNameToNumber(name); ok {
		p.Month = &month
	}
	return p
}

// ExtractEmployee finds the first line starting with an uppercase name, a
// hyphen and a numeric identifier of at least four digits.
func ExtractEmployee(text string) (name, id *string) {
	m := employeePattern.FindStringSubmatch(text)
	if m == nil {
		return nil, nil
	}
	n := strings.TrimSpace(m[1])
	i := m[2]
	return &n, &i
}

func extractMetadata(text string) domain.Metadata {
	period := ExtractPeriod(text)
	name, id := ExtractEmployee(text)
	return domain.Metadata{
		EmployeeName: name,
		EmployeeID:   id,
		MonthName:    period.MonthName,
		Month:        period.Month,
		Year:         period.Year,
	}
}
