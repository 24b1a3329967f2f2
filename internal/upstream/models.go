package upstream

// Event is the upstream's authoritative calendar record. Listing records
// from the occurrences endpoint reuse the same shape: they carry a
// concrete StartDateTime/EndDateTime and possibly an OccurrenceID, but
// never a SeriesSchema.
type Event struct {
	Key           string `json:"key,omitempty"`
	EventMode     string `json:"eventMode,omitempty"` // "single" | "serial"
	Subject       string `json:"subject,omitempty"`
	Content       string `json:"content,omitempty"`
	Location      string `json:"location,omitempty"`
	EventCategory string `json:"eventCategory,omitempty"`
	OwnerKey      string `json:"ownerKey,omitempty"`
	OccurrenceID  string `json:"occurrenceId,omitempty"`

	// Single events: concrete UTC instants on the wire.
	StartDateTime        string `json:"startDateTime,omitempty"`
	StartDateTimeEnabled bool   `json:"startDateTimeEnabled,omitempty"`
	EndDateTime          string `json:"endDateTime,omitempty"`
	EndDateTimeEnabled   bool   `json:"endDateTimeEnabled,omitempty"`

	// Series events: calendar dates plus seconds-from-midnight in the
	// upstream's local timezone.
	SeriesStartDate            string        `json:"seriesStartDate,omitempty"`
	SeriesEndDate              string        `json:"seriesEndDate,omitempty"`
	OccurrenceStartTime        int           `json:"occurrenceStartTime,omitempty"`
	OccurrenceStartTimeEnabled bool          `json:"occurrenceStartTimeEnabled,omitempty"`
	OccurrenceEndTime          int           `json:"occurrenceEndTime,omitempty"`
	OccurrenceEndTimeEnabled   bool          `json:"occurrenceEndTimeEnabled,omitempty"`
	SeriesSchema               *SeriesSchema `json:"seriesSchema,omitempty"`

	WholeDayEvent     bool `json:"wholeDayEvent,omitempty"`
	ReminderEnabled   bool `json:"reminderEnabled,omitempty"`
	RemindBeforeStart int  `json:"remindBeforeStart,omitempty"`
	Private           bool `json:"private,omitempty"`
}

// SeriesSchema is the upstream's recurrence model: a tagged union keyed
// by SchemaType with exactly one of the data fields populated.
// "arrhythmic" has no data field and no RRULE representation.
type SeriesSchema struct {
	SchemaType        string             `json:"schemaType"` // daily|weekly|monthly|yearly|arrhythmic
	DailySchemaData   *DailySchemaData   `json:"dailySchemaData,omitempty"`
	WeeklySchemaData  *WeeklySchemaData  `json:"weeklySchemaData,omitempty"`
	MonthlySchemaData *MonthlySchemaData `json:"monthlySchemaData,omitempty"`
	YearlySchemaData  *YearlySchemaData  `json:"yearlySchemaData,omitempty"`
}

type DailySchemaData struct {
	Regularity   string `json:"regularity"` // "allBusinessDays" | "interval"
	DaysInterval int    `json:"daysInterval,omitempty"`
}

type WeeklySchemaData struct {
	Weekdays      []string `json:"weekdays"` // "monday".."sunday"
	WeeksInterval int      `json:"weeksInterval,omitempty"`
}

type MonthlySchemaData struct {
	Regularity     string `json:"regularity"` // "specificDate" | "specificDay"
	DayOfMonth     int    `json:"dayOfMonth,omitempty"`
	Weekday        string `json:"weekday,omitempty"`
	WeekNumber     int    `json:"weekNumber,omitempty"`
	MonthsInterval int    `json:"monthsInterval,omitempty"`
}

type YearlySchemaData struct {
	Regularity  string `json:"regularity"` // "specificDate" | "specificDay"
	MonthOfYear int    `json:"monthOfYear,omitempty"`
	DayOfMonth  int    `json:"dayOfMonth,omitempty"`
	Weekday     string `json:"weekday,omitempty"`
	WeekNumber  int    `json:"weekNumber,omitempty"`
}

type eventListResponse struct {
	CalendarEvents []Event `json:"calendarEvents"`
}

// Address is an upstream address-book record, read-only on our side.
type Address struct {
	Key           string             `json:"key"`
	AddressType   string             `json:"addressType,omitempty"` // customer|supplier|employee|other
	Name          string             `json:"name,omitempty"`
	TaxID         string             `json:"taxId,omitempty"`
	ClientNumber  string             `json:"clientNumber,omitempty"`
	Memo          string             `json:"memo,omitempty"`
	PostAddresses []PostAddressEntry `json:"postAddresses,omitempty"`
}

type PostAddressEntry struct {
	PostAddress PostAddress `json:"postAddress"`
}

type PostAddress struct {
	Line1          string `json:"line1,omitempty"`
	Line2          string `json:"line2,omitempty"`
	Street         string `json:"street,omitempty"`
	ZipCodeAndCity string `json:"zipCodeAndCity,omitempty"`
	Country        string `json:"country,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Mobile         string `json:"mobile,omitempty"`
	Fax            string `json:"fax,omitempty"`
	Email          string `json:"email,omitempty"`
	Website        string `json:"website,omitempty"`
}

type AddressPage struct {
	Addresses  []Address `json:"addresses"`
	Count      int       `json:"count"`
	TotalCount int       `json:"totalCount"`
}

type companiesResponse struct {
	Companies []struct {
		CompanyName string `json:"companyName"`
	} `json:"companies"`
}
