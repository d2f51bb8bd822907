package collectors

import "strings"

// Allowlist substrings of known benign signals
type Allowlist struct {
	// Network urls ignored at any status
	Network []string
	// Network4xx urls where 4xx is expected, 5xx still fails
	Network4xx []string
	// Console console errors and uncaught exceptions to ignore
	Console []string
	// ConsoleLocalOnly ignored locally, hard failures in CI where they point
	// to a real misconfiguration
	ConsoleLocalOnly []string
}

func DefaultAllowlist() Allowlist {
	return Allowlist{
		Network: []string{
			"/auth/v1/callback",
			"/auth/callback",
			"/favicon.ico",
			"/sw.js",
			"/service-worker.js",
			"/manifest.webmanifest",
		},
		Network4xx: []string{
			// unauthenticated REST calls against the backing data service
			"/rest/v1/",
			"/auth/v1/user",
			"/auth/v1/token",
		},
		Console: []string{
			"Auth session missing",
			"AuthSessionMissingError",
			"Hydration failed because",
			"There was an error while hydrating",
			"Text content does not match server-rendered HTML",
			"chrome-extension://",
			"moz-extension://",
			"Refused to load the script 'https://www.googletagmanager.com",
			"Refused to frame 'https://www.youtube-nocookie.com",
			"Failed to load resource: the server responded with a status of 401",
		},
		ConsoleLocalOnly: []string{
			"Missing Supabase URL",
			"Missing Supabase anon key",
			"supabaseUrl is required",
			"NEXT_PUBLIC_SUPABASE_",
		},
	}
}

// Effective allowlist for the given execution environment
func (a Allowlist) Effective(ci bool) Allowlist {
	e := Allowlist{
		Network:    append([]string{}, a.Network...),
		Network4xx: append([]string{}, a.Network4xx...),
		Console:    append([]string{}, a.Console...),
	}
	if !ci {
		e.Console = append(e.Console, a.ConsoleLocalOnly...)
	}
	return e
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if p != "" && strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// IgnoreConsole console and page error messages
func (a Allowlist) IgnoreConsole(message string) bool {
	return containsAny(message, a.Console)
}

// IgnoreResponse status < 400 is never a signal
func (a Allowlist) IgnoreResponse(url string, status int) bool {
	if status < 400 {
		return true
	}
	if containsAny(url, a.Network) {
		return true
	}
	return status < 500 && containsAny(url, a.Network4xx)
}
