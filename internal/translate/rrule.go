package translate

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/davgate/davgate/internal/upstream"
)

const businessDaysRule = "FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR"

var weekdayTokens = map[string]string{
	"monday":    "MO",
	"tuesday":   "TU",
	"wednesday": "WE",
	"thursday":  "TH",
	"friday":    "FR",
	"saturday":  "SA",
	"sunday":    "SU",
}

var tokenWeekdays = map[string]string{
	"MO": "monday",
	"TU": "tuesday",
	"WE": "wednesday",
	"TH": "thursday",
	"FR": "friday",
	"SA": "saturday",
	"SU": "sunday",
}

// BYDAY lists are always emitted in MO..SU order.
var weekdayOrder = []string{"MO", "TU", "WE", "TH", "FR", "SA", "SU"}

// SchemaToRRule synthesizes an RRULE from the upstream recurrence model.
// The arrhythmic variant has no RRULE representation and yields "".
func SchemaToRRule(s *upstream.SeriesSchema) (string, error) {
	if s == nil {
		return "", nil
	}
	switch s.SchemaType {
	case "daily":
		d := s.DailySchemaData
		if d != nil && d.Regularity == "allBusinessDays" {
			return businessDaysRule, nil
		}
		n := 1
		if d != nil && d.DaysInterval > 0 {
			n = d.DaysInterval
		}
		if n == 1 {
			return "FREQ=DAILY", nil
		}
		return fmt.Sprintf("FREQ=DAILY;INTERVAL=%d", n), nil

	case "weekly":
		w := s.WeeklySchemaData
		if w == nil || len(w.Weekdays) == 0 {
			return "", fmt.Errorf("weekly schema without weekdays")
		}
		byday, err := sortedByDay(w.Weekdays)
		if err != nil {
			return "", err
		}
		rule := "FREQ=WEEKLY"
		if w.WeeksInterval > 1 {
			rule += fmt.Sprintf(";INTERVAL=%d", w.WeeksInterval)
		}
		return rule + ";BYDAY=" + byday, nil

	case "monthly":
		m := s.MonthlySchemaData
		if m == nil {
			return "", fmt.Errorf("monthly schema without data")
		}
		rule := "FREQ=MONTHLY"
		if m.MonthsInterval > 1 {
			rule += fmt.Sprintf(";INTERVAL=%d", m.MonthsInterval)
		}
		switch m.Regularity {
		case "specificDate":
			return rule + fmt.Sprintf(";BYMONTHDAY=%d", m.DayOfMonth), nil
		case "specificDay":
			tok, ok := weekdayTokens[strings.ToLower(m.Weekday)]
			if !ok {
				return "", fmt.Errorf("unknown weekday %q", m.Weekday)
			}
			return rule + fmt.Sprintf(";BYDAY=%d%s", m.WeekNumber, tok), nil
		default:
			return "", fmt.Errorf("unknown monthly regularity %q", m.Regularity)
		}

	case "yearly":
		y := s.YearlySchemaData
		if y == nil {
			return "", fmt.Errorf("yearly schema without data")
		}
		switch y.Regularity {
		case "specificDate":
			return fmt.Sprintf("FREQ=YEARLY;BYMONTH=%d;BYMONTHDAY=%d", y.MonthOfYear, y.DayOfMonth), nil
		case "specificDay":
			tok, ok := weekdayTokens[strings.ToLower(y.Weekday)]
			if !ok {
				return "", fmt.Errorf("unknown weekday %q", y.Weekday)
			}
			return fmt.Sprintf("FREQ=YEARLY;BYMONTH=%d;BYDAY=%d%s", y.MonthOfYear, y.WeekNumber, tok), nil
		default:
			return "", fmt.Errorf("unknown yearly regularity %q", y.Regularity)
		}

	case "arrhythmic":
		return "", nil

	default:
		return "", fmt.Errorf("unknown schemaType %q", s.SchemaType)
	}
}

func sortedByDay(weekdays []string) (string, error) {
	present := make(map[string]bool, len(weekdays))
	for _, wd := range weekdays {
		tok, ok := weekdayTokens[strings.ToLower(wd)]
		if !ok {
			return "", fmt.Errorf("unknown weekday %q", wd)
		}
		present[tok] = true
	}
	var out []string
	for _, tok := range weekdayOrder {
		if present[tok] {
			out = append(out, tok)
		}
	}
	return strings.Join(out, ","), nil
}

type bydayPart struct {
	ordinal int // 0 when the token carries no ordinal
	token   string
}

// RRuleToSchema maps an RRULE back onto the upstream model, the inverse
// of SchemaToRRule. Weekday-only rules covering exactly MO..FR collapse
// to daily/allBusinessDays so that round-trips preserve the variant.
// Shapes outside the closed set degrade to daily with interval 1.
func RRuleToSchema(rule string) *upstream.SeriesSchema {
	parts := parseRRuleParts(rule)
	freq := parts["FREQ"]
	interval := 1
	if v, err := strconv.Atoi(parts["INTERVAL"]); err == nil && v > 0 {
		interval = v
	}
	byday := parseByDay(parts["BYDAY"])

	if (freq == "WEEKLY" || freq == "DAILY") && isBusinessDays(byday) {
		return &upstream.SeriesSchema{
			SchemaType:      "daily",
			DailySchemaData: &upstream.DailySchemaData{Regularity: "allBusinessDays"},
		}
	}

	switch freq {
	case "DAILY":
		return &upstream.SeriesSchema{
			SchemaType:      "daily",
			DailySchemaData: &upstream.DailySchemaData{Regularity: "interval", DaysInterval: interval},
		}

	case "WEEKLY":
		var names []string
		for _, tok := range weekdayOrder {
			for _, p := range byday {
				if p.token == tok && p.ordinal == 0 {
					names = append(names, tokenWeekdays[tok])
				}
			}
		}
		if len(names) == 0 {
			break
		}
		return &upstream.SeriesSchema{
			SchemaType:       "weekly",
			WeeklySchemaData: &upstream.WeeklySchemaData{Weekdays: names, WeeksInterval: interval},
		}

	case "MONTHLY":
		if d, err := strconv.Atoi(parts["BYMONTHDAY"]); err == nil {
			return &upstream.SeriesSchema{
				SchemaType: "monthly",
				MonthlySchemaData: &upstream.MonthlySchemaData{
					Regularity: "specificDate", DayOfMonth: d, MonthsInterval: interval,
				},
			}
		}
		if len(byday) == 1 && byday[0].ordinal != 0 {
			return &upstream.SeriesSchema{
				SchemaType: "monthly",
				MonthlySchemaData: &upstream.MonthlySchemaData{
					Regularity:     "specificDay",
					Weekday:        tokenWeekdays[byday[0].token],
					WeekNumber:     byday[0].ordinal,
					MonthsInterval: interval,
				},
			}
		}

	case "YEARLY":
		m, merr := strconv.Atoi(parts["BYMONTH"])
		if merr == nil {
			if d, err := strconv.Atoi(parts["BYMONTHDAY"]); err == nil {
				return &upstream.SeriesSchema{
					SchemaType: "yearly",
					YearlySchemaData: &upstream.YearlySchemaData{
						Regularity: "specificDate", MonthOfYear: m, DayOfMonth: d,
					},
				}
			}
			if len(byday) == 1 && byday[0].ordinal != 0 {
				return &upstream.SeriesSchema{
					SchemaType: "yearly",
					YearlySchemaData: &upstream.YearlySchemaData{
						Regularity:  "specificDay",
						MonthOfYear: m,
						Weekday:     tokenWeekdays[byday[0].token],
						WeekNumber:  byday[0].ordinal,
					},
				}
			}
		}
	}

	return &upstream.SeriesSchema{
		SchemaType:      "daily",
		DailySchemaData: &upstream.DailySchemaData{Regularity: "interval", DaysInterval: 1},
	}
}

func parseRRuleParts(rule string) map[string]string {
	parts := make(map[string]string)
	for _, kv := range strings.Split(rule, ";") {
		if i := strings.IndexByte(kv, '='); i > 0 {
			parts[strings.ToUpper(strings.TrimSpace(kv[:i]))] = strings.TrimSpace(kv[i+1:])
		}
	}
	return parts
}

func parseByDay(s string) []bydayPart {
	if s == "" {
		return nil
	}
	var out []bydayPart
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(strings.ToUpper(tok))
		if len(tok) < 2 {
			continue
		}
		day := tok[len(tok)-2:]
		if _, ok := tokenWeekdays[day]; !ok {
			continue
		}
		ord := 0
		if len(tok) > 2 {
			if n, err := strconv.Atoi(tok[:len(tok)-2]); err == nil {
				ord = n
			}
		}
		out = append(out, bydayPart{ordinal: ord, token: day})
	}
	return out
}

func isBusinessDays(parts []bydayPart) bool {
	if len(parts) != 5 {
		return false
	}
	want := map[string]bool{"MO": true, "TU": true, "WE": true, "TH": true, "FR": true}
	for _, p := range parts {
		if p.ordinal != 0 || !want[p.token] {
			return false
		}
		delete(want, p.token)
	}
	return len(want) == 0
}

// FirstInstance evaluates rule anchored at the provisional start and
// returns the first yielded instance. The anchor itself counts when it
// satisfies the rule; on any evaluation problem the anchor is returned
// unchanged.
func FirstInstance(anchor time.Time, rule string) time.Time {
	if rule == "" {
		return anchor
	}
	rruleStr := "DTSTART:" + anchor.UTC().Format("20060102T150405Z") + "\nRRULE:" + rule
	r, err := rrule.StrToRRule(rruleStr)
	if err != nil {
		return anchor
	}
	first := r.After(anchor.Add(-time.Second), true)
	if first.IsZero() {
		return anchor
	}
	return first
}
