package carddav

import (
	"path"
	"strings"
)

// SplitResourcePath classifies a path (or full-URL href) under the
// contacts subtree. Patterns:
//
//	contacts/                  -> home ("", "", true)
//	contacts/{book}/           -> address book
//	contacts/{book}/{key.vcf}  -> card
func SplitResourcePath(urlPath, basePath string) (book string, object string, ok bool) {
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
	if len(parts) == 0 || parts[0] != "contacts" {
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

// CardStem strips the .vcf extension from a card filename.
func CardStem(filename string) string {
	return strings.TrimSuffix(filename, path.Ext(filename))
}
