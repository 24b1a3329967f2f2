package common

import (
	"crypto/md5"
	"encoding/hex"
	"net/http"
	"strings"
	"time"
)

func ParseICalTime(s string) (time.Time, error) {
	if len(s) == 8 {
		return time.Parse("20060102", s)
	}
	if strings.HasSuffix(s, "Z") {
		return time.Parse("20060102T150405Z", s)
	}
	return time.Parse(time.RFC3339, s)
}

func TrimQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

func SafeSegment(s string) bool {
	return s != "" && !strings.Contains(s, "/") && !strings.Contains(s, "\\") && !strings.Contains(s, "..")
}

// ETagFor is the gateway's ETag scheme: quoted md5 of the serialized
// body, recomputed on every read.
func ETagFor(body []byte) string {
	sum := md5.Sum(body)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

// Depth normalizes the Depth header. Absent means 0 here; the second
// return is false for values outside {0, 1, infinity}.
func Depth(r *http.Request) (string, bool) {
	d := strings.TrimSpace(r.Header.Get("Depth"))
	switch d {
	case "":
		return "0", true
	case "0", "1", "infinity":
		return d, true
	}
	return "", false
}

// CheckConditional evaluates If-Match / If-None-Match against the
// current state of the target. currentETag is empty when the resource
// does not exist. A false return means 412.
func CheckConditional(r *http.Request, exists bool, currentETag string) bool {
	if inm := strings.TrimSpace(r.Header.Get("If-None-Match")); inm != "" {
		if inm == "*" {
			if exists {
				return false
			}
		} else if exists && ETagListMatches(inm, currentETag) {
			return false
		}
	}
	if im := strings.TrimSpace(r.Header.Get("If-Match")); im != "" {
		if !exists {
			return false
		}
		if im != "*" && !ETagListMatches(im, currentETag) {
			return false
		}
	}
	return true
}

// ETagListMatches reports whether any member of a comma-separated
// ETag header value equals etag, quotes ignored.
func ETagListMatches(header, etag string) bool {
	target := TrimQuotes(etag)
	for _, part := range strings.Split(header, ",") {
		if TrimQuotes(part) == target {
			return true
		}
	}
	return false
}
