package caldav

import (
	"path"
	"strings"

	"github.com/davgate/davgate/internal/dav/common"
)

// SplitResourcePath classifies a path (or full-URL href) under the
// calendar subtree. Patterns:
//
//	calendars/                   -> home ("", "", nil)
//	calendars/{cal}/             -> collection
//	calendars/{cal}/{object.ics} -> object
func SplitResourcePath(urlPath, basePath string) (collection string, object string, ok bool) {
	// Accept both absolute and full-URL hrefs
	if !strings.HasPrefix(urlPath, "/") {
		if idx := strings.Index(urlPath, "://"); idx >= 0 {
			if slash := strings.Index(urlPath[idx+3:], "/"); slash >= 0 {
				urlPath = urlPath[idx+3+slash:]
			}
		}
	}
	pp := strings.TrimPrefix(urlPath, basePath)
	pp = strings.TrimPrefix(pp, "/")
	parts := strings.Split(pp, "/")
	if len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	if len(parts) == 0 || parts[0] != "calendars" {
		return "", "", false
	}
	switch len(parts) {
	case 1:
		return "", "", true
	case 2:
		return parts[1], "", true
	case 3:
		return parts[1], parts[2], true
	}
	return "", "", false
}

// ObjectStem strips the .ics extension from an object filename.
func ObjectStem(filename string) string {
	return strings.TrimSuffix(filename, path.Ext(filename))
}

// ParseObjectStem splits a resource stem into a candidate event key and
// occurrence id. The occurrence form is `<key>-<occid>` with an
// alphanumeric suffix; a stem without a qualifying suffix is a plain
// key. Callers still disambiguate against the upstream, since keys
// themselves may contain dashes.
func ParseObjectStem(stem string) (key, occurrenceID string) {
	i := strings.LastIndexByte(stem, '-')
	if i <= 0 || i == len(stem)-1 {
		return stem, ""
	}
	suffix := stem[i+1:]
	if !alnum(suffix) {
		return stem, ""
	}
	return stem[:i], suffix
}

func alnum(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		default:
			return false
		}
	}
	return s != ""
}

func calendarHome(basePath string) string {
	return common.CalendarHome(basePath)
}

func calendarPath(basePath, calURI string) string {
	return common.CalendarPath(basePath, calURI)
}

func objectPath(basePath, calURI, stem string) string {
	return common.JoinURL(basePath, "calendars", calURI, stem+".ics")
}
