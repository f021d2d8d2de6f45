package cartellino

import (
	"regexp"

	"cartellino/internal/domain"
)

var totalLabels = map[domain.TotalKey]string{
	domain.TotalWorkedHours:       "ORE LAVORATE",
	domain.TotalScheduledDue:      "ORE DOVUTE PROGRAMMATE",
	domain.TotalContractualDue:    "ORE DOVUTE CONTRATTUALI",
	domain.TotalGrossConfirmed:    "DB/CR LORDO CONFERMATO",
	domain.TotalNetBalance:        "DB/CR NETTO",
	domain.TotalPriorMonthBalance: "SALDO AL MESE PRECEDENTE",
	domain.TotalCurrentBalance:    "SALDO AL MESE CORRENTE",
}

var totalPatterns = func() map[domain.TotalKey]*regexp.Regexp {
	out := make(map[domain.TotalKey]*regexp.Regexp, len(totalLabels))
	for key, label := range totalLabels {
		out[key] = regexp.MustCompile(regexp.QuoteMeta(label) + space + `+([+-]?\d+(?:\.\d+)?)`)
	}
	return out
}()

// TotalLabel returns the label printed on the document for key.
func TotalLabel(key domain.TotalKey) string {
	return totalLabels[key]
}

// ExtractTotals returns the monthly aggregates found in text, converted from
// packed hours. Labels that do not appear are left out.
func ExtractTotals(text string) domain.Totals {
	totals := domain.Totals{}
	for _, key := range domain.TotalKeys {
		m := totalPatterns[key].FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v, err := packedTokenHours(m[1])
		if err != nil {
			continue
		}
		totals[key] = v
	}
	return totals
}
