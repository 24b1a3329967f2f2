package common

import "strings"

func JoinURL(parts ...string) string {
	s := strings.Join(parts, "/")
	s = strings.ReplaceAll(s, "//", "/")
	if !strings.HasPrefix(s, "/") {
		s = "/" + s
	}
	return s
}

// PrincipalURL is the single synthetic principal this deployment serves.
func PrincipalURL(basePath string) string {
	return JoinURL(basePath, "principals", "current") + "/"
}

func CalendarHome(basePath string) string {
	return JoinURL(basePath, "calendars") + "/"
}

func CalendarPath(basePath, calURI string) string {
	return JoinURL(basePath, "calendars", calURI) + "/"
}

func AddressbookHome(basePath string) string {
	return JoinURL(basePath, "contacts") + "/"
}

func AddressbookPath(basePath, bookURI string) string {
	return JoinURL(basePath, "contacts", bookURI) + "/"
}
