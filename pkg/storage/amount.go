package storage

import (
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

var amountPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// parseAmount pulls the first number out of a free-form cost such as
// "7 000 руб." or "4850,50 р". Spaces between digit groups and a decimal
// comma are accepted.
func parseAmount(s string) (decimal.Decimal, bool) {
	s = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "", ",", ".").Replace(s)
	m := amountPattern.FindString(s)
	if m == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(m)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

type costRow struct {
	customer string
	cost     string
}

func summarize(rows []costRow) []CustomerTotal {
	byCustomer := make(map[string]*CustomerTotal)
	for _, r := range rows {
		t, ok := byCustomer[r.customer]
		if !ok {
			t = &CustomerTotal{Customer: r.customer, Cost: decimal.Zero}
			byCustomer[r.customer] = t
		}
		t.Shipments++
		if d, ok := parseAmount(r.cost); ok {
			t.Cost = t.Cost.Add(d)
		} else {
			t.Unparsed++
		}
	}

	out := make([]CustomerTotal, 0, len(byCustomer))
	for _, t := range byCustomer {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Cost.Cmp(out[j].Cost); c != 0 {
			return c > 0
		}
		return out[i].Customer < out[j].Customer
	})
	return out
}
