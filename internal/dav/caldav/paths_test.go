package caldav

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitResourcePath(t *testing.T) {
	tests := []struct {
		path       string
		collection string
		object     string
		ok         bool
	}{
		{"/dav/calendars/", "", "", true},
		{"/dav/calendars", "", "", true},
		{"/dav/calendars/default/", "default", "", true},
		{"/dav/calendars/default/ev1.ics", "default", "ev1.ics", true},
		{"http://cal.example.com/dav/calendars/default/ev1.ics", "default", "ev1.ics", true},
		{"/dav/contacts/customer/", "", "", false},
		{"/dav/", "", "", false},
		{"/dav/calendars/default/sub/deep.ics", "", "", false},
	}

	for _, tt := range tests {
		collection, object, ok := SplitResourcePath(tt.path, "/dav")
		assert.Equal(t, tt.ok, ok, "path %q", tt.path)
		assert.Equal(t, tt.collection, collection, "path %q", tt.path)
		assert.Equal(t, tt.object, object, "path %q", tt.path)
	}
}

func TestObjectStem(t *testing.T) {
	assert.Equal(t, "ev1", ObjectStem("ev1.ics"))
	assert.Equal(t, "ev1-occ2", ObjectStem("ev1-occ2.ics"))
	assert.Equal(t, "ev1", ObjectStem("ev1"))
}

func TestParseObjectStem(t *testing.T) {
	tests := []struct {
		stem  string
		key   string
		occID string
	}{
		{"abc", "abc", ""},
		{"abc-123", "abc", "123"},
		{"abc-def-o1", "abc-def", "o1"},
		{"abc-", "abc-", ""},
		{"-abc", "-abc", ""},
		{"abc-o_1", "abc-o_1", ""},
		{"f47ac10b-58cc-4372-a567-0e02b2c3d479", "f47ac10b-58cc-4372-a567", "0e02b2c3d479"},
	}
	for _, tt := range tests {
		key, occID := ParseObjectStem(tt.stem)
		assert.Equal(t, tt.key, key, "stem %q", tt.stem)
		assert.Equal(t, tt.occID, occID, "stem %q", tt.stem)
	}
}
