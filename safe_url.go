package authkit

import "net/url"

// MakeSafeURL strips the scheme and host/port from an arbitrary caller
// supplied URL, keeping only path, query and fragment. Honoring a "return to
// this page after login" parameter through this function prevents open
// redirects.
//
//	MakeSafeURL("https://evil.example/path?x=1#frag") == "/path?x=1#frag"
func MakeSafeURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "/"
	}

	parsed.Scheme = ""
	parsed.Host = ""
	parsed.User = nil
	parsed.Opaque = ""

	safe := parsed.String()
	if safe == "" {
		return "/"
	}

	// A path like "//evil.example/x" would still be scheme-relative.
	for len(safe) > 1 && safe[0] == '/' && safe[1] == '/' {
		safe = safe[1:]
	}

	return safe
}
