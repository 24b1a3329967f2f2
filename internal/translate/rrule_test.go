package translate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davgate/davgate/internal/upstream"
)

func TestSchemaToRRule(t *testing.T) {
	tests := []struct {
		name   string
		schema *upstream.SeriesSchema
		want   string
	}{
		{
			name: "daily interval 1",
			schema: &upstream.SeriesSchema{
				SchemaType:      "daily",
				DailySchemaData: &upstream.DailySchemaData{Regularity: "interval", DaysInterval: 1},
			},
			want: "FREQ=DAILY",
		},
		{
			name: "daily interval 3",
			schema: &upstream.SeriesSchema{
				SchemaType:      "daily",
				DailySchemaData: &upstream.DailySchemaData{Regularity: "interval", DaysInterval: 3},
			},
			want: "FREQ=DAILY;INTERVAL=3",
		},
		{
			name: "business days",
			schema: &upstream.SeriesSchema{
				SchemaType:      "daily",
				DailySchemaData: &upstream.DailySchemaData{Regularity: "allBusinessDays"},
			},
			want: "FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR",
		},
		{
			name: "weekly ordered byday",
			schema: &upstream.SeriesSchema{
				SchemaType:       "weekly",
				WeeklySchemaData: &upstream.WeeklySchemaData{Weekdays: []string{"friday", "monday"}},
			},
			want: "FREQ=WEEKLY;BYDAY=MO,FR",
		},
		{
			name: "weekly interval 2",
			schema: &upstream.SeriesSchema{
				SchemaType:       "weekly",
				WeeklySchemaData: &upstream.WeeklySchemaData{Weekdays: []string{"tuesday"}, WeeksInterval: 2},
			},
			want: "FREQ=WEEKLY;INTERVAL=2;BYDAY=TU",
		},
		{
			name: "monthly specific date",
			schema: &upstream.SeriesSchema{
				SchemaType:        "monthly",
				MonthlySchemaData: &upstream.MonthlySchemaData{Regularity: "specificDate", DayOfMonth: 15},
			},
			want: "FREQ=MONTHLY;BYMONTHDAY=15",
		},
		{
			name: "monthly specific day",
			schema: &upstream.SeriesSchema{
				SchemaType: "monthly",
				MonthlySchemaData: &upstream.MonthlySchemaData{
					Regularity: "specificDay", Weekday: "friday", WeekNumber: 2,
				},
			},
			want: "FREQ=MONTHLY;BYDAY=2FR",
		},
		{
			name: "yearly specific date",
			schema: &upstream.SeriesSchema{
				SchemaType: "yearly",
				YearlySchemaData: &upstream.YearlySchemaData{
					Regularity: "specificDate", MonthOfYear: 7, DayOfMonth: 4,
				},
			},
			want: "FREQ=YEARLY;BYMONTH=7;BYMONTHDAY=4",
		},
		{
			name: "yearly specific day",
			schema: &upstream.SeriesSchema{
				SchemaType: "yearly",
				YearlySchemaData: &upstream.YearlySchemaData{
					Regularity: "specificDay", MonthOfYear: 11, Weekday: "thursday", WeekNumber: 4,
				},
			},
			want: "FREQ=YEARLY;BYMONTH=11;BYDAY=4TH",
		},
		{
			name:   "arrhythmic has no rule",
			schema: &upstream.SeriesSchema{SchemaType: "arrhythmic"},
			want:   "",
		},
		{
			name:   "nil schema",
			schema: nil,
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SchemaToRRule(tt.schema)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSchemaToRRuleErrors(t *testing.T) {
	tests := []struct {
		name   string
		schema *upstream.SeriesSchema
	}{
		{"weekly without weekdays", &upstream.SeriesSchema{SchemaType: "weekly"}},
		{"monthly without data", &upstream.SeriesSchema{SchemaType: "monthly"}},
		{"unknown schema type", &upstream.SeriesSchema{SchemaType: "lunar"}},
		{
			"unknown weekday",
			&upstream.SeriesSchema{
				SchemaType:       "weekly",
				WeeklySchemaData: &upstream.WeeklySchemaData{Weekdays: []string{"someday"}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SchemaToRRule(tt.schema)
			assert.Error(t, err)
		})
	}
}

func TestRRuleToSchema(t *testing.T) {
	t.Run("business days from weekly", func(t *testing.T) {
		s := RRuleToSchema("FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR")
		require.Equal(t, "daily", s.SchemaType)
		require.NotNil(t, s.DailySchemaData)
		assert.Equal(t, "allBusinessDays", s.DailySchemaData.Regularity)
	})

	t.Run("business days from daily with byday", func(t *testing.T) {
		s := RRuleToSchema("FREQ=DAILY;BYDAY=FR,TH,WE,TU,MO")
		require.Equal(t, "daily", s.SchemaType)
		assert.Equal(t, "allBusinessDays", s.DailySchemaData.Regularity)
	})

	t.Run("plain daily", func(t *testing.T) {
		s := RRuleToSchema("FREQ=DAILY")
		require.Equal(t, "daily", s.SchemaType)
		assert.Equal(t, "interval", s.DailySchemaData.Regularity)
		assert.Equal(t, 1, s.DailySchemaData.DaysInterval)
	})

	t.Run("daily with interval", func(t *testing.T) {
		s := RRuleToSchema("FREQ=DAILY;INTERVAL=3")
		assert.Equal(t, 3, s.DailySchemaData.DaysInterval)
	})

	t.Run("weekly", func(t *testing.T) {
		s := RRuleToSchema("FREQ=WEEKLY;INTERVAL=2;BYDAY=TH,TU")
		require.Equal(t, "weekly", s.SchemaType)
		require.NotNil(t, s.WeeklySchemaData)
		assert.Equal(t, []string{"tuesday", "thursday"}, s.WeeklySchemaData.Weekdays)
		assert.Equal(t, 2, s.WeeklySchemaData.WeeksInterval)
	})

	t.Run("monthly by month day", func(t *testing.T) {
		s := RRuleToSchema("FREQ=MONTHLY;BYMONTHDAY=15")
		require.Equal(t, "monthly", s.SchemaType)
		assert.Equal(t, "specificDate", s.MonthlySchemaData.Regularity)
		assert.Equal(t, 15, s.MonthlySchemaData.DayOfMonth)
	})

	t.Run("monthly by ordinal weekday", func(t *testing.T) {
		s := RRuleToSchema("FREQ=MONTHLY;BYDAY=2FR")
		require.Equal(t, "monthly", s.SchemaType)
		assert.Equal(t, "specificDay", s.MonthlySchemaData.Regularity)
		assert.Equal(t, "friday", s.MonthlySchemaData.Weekday)
		assert.Equal(t, 2, s.MonthlySchemaData.WeekNumber)
	})

	t.Run("yearly by date", func(t *testing.T) {
		s := RRuleToSchema("FREQ=YEARLY;BYMONTH=7;BYMONTHDAY=4")
		require.Equal(t, "yearly", s.SchemaType)
		assert.Equal(t, "specificDate", s.YearlySchemaData.Regularity)
		assert.Equal(t, 7, s.YearlySchemaData.MonthOfYear)
		assert.Equal(t, 4, s.YearlySchemaData.DayOfMonth)
	})

	t.Run("unsupported shapes degrade to daily", func(t *testing.T) {
		for _, rule := range []string{
			"FREQ=HOURLY",
			"FREQ=WEEKLY",
			"FREQ=MONTHLY;BYDAY=MO,TU",
			"",
		} {
			s := RRuleToSchema(rule)
			require.Equal(t, "daily", s.SchemaType, "rule %q", rule)
			assert.Equal(t, "interval", s.DailySchemaData.Regularity, "rule %q", rule)
			assert.Equal(t, 1, s.DailySchemaData.DaysInterval, "rule %q", rule)
		}
	})
}

func TestSchemaRRuleRoundTrip(t *testing.T) {
	rules := []string{
		"FREQ=DAILY",
		"FREQ=DAILY;INTERVAL=4",
		"FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR",
		"FREQ=WEEKLY;BYDAY=MO,WE",
		"FREQ=WEEKLY;INTERVAL=2;BYDAY=SA,SU",
		"FREQ=MONTHLY;BYMONTHDAY=1",
		"FREQ=MONTHLY;BYDAY=3WE",
		"FREQ=YEARLY;BYMONTH=12;BYMONTHDAY=24",
		"FREQ=YEARLY;BYMONTH=5;BYDAY=1MO",
	}
	for _, rule := range rules {
		got, err := SchemaToRRule(RRuleToSchema(rule))
		require.NoError(t, err, "rule %q", rule)
		assert.Equal(t, rule, got)
	}
}

func TestFirstInstance(t *testing.T) {
	// 2026-01-10 is a Saturday.
	saturday := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)

	t.Run("anchor off the rule moves forward", func(t *testing.T) {
		got := FirstInstance(saturday, "FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR")
		assert.Equal(t, time.Date(2026, 1, 12, 8, 0, 0, 0, time.UTC), got)
		assert.Equal(t, time.Monday, got.Weekday())
	})

	t.Run("anchor on the rule stays", func(t *testing.T) {
		monday := time.Date(2026, 1, 12, 8, 0, 0, 0, time.UTC)
		got := FirstInstance(monday, "FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR")
		assert.Equal(t, monday, got)
	})

	t.Run("empty rule keeps the anchor", func(t *testing.T) {
		assert.Equal(t, saturday, FirstInstance(saturday, ""))
	})

	t.Run("bad rule keeps the anchor", func(t *testing.T) {
		assert.Equal(t, saturday, FirstInstance(saturday, "FREQ=NONSENSE;;;"))
	})
}
