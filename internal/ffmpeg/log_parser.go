package ffmpeg

import "strings"

// ParseLogLevel extracts the level from a line printed with
// -loglevel level+X. Lines look like "[info] message" or
// "[component @ 0x...] [level] message". The level bracket is stripped and
// a component bracket is kept. Unrecognized lines are info.
func ParseLogLevel(line string) (level, msg string) {
	first, rest, ok := cutBracket(line)
	if !ok {
		return "info", line
	}
	if isLogLevel(first) {
		return first, rest
	}

	second, tail, ok := cutBracket(rest)
	if ok && isLogLevel(second) {
		return second, line[:len(line)-len(rest)] + tail
	}
	return "info", line
}

// cutBracket splits "[inner] rest" into inner and rest.
func cutBracket(s string) (inner, rest string, ok bool) {
	if len(s) < 3 || s[0] != '[' {
		return "", s, false
	}
	end := strings.Index(s, "] ")
	if end == -1 {
		return "", s, false
	}
	return s[1:end], s[end+2:], true
}

// stripBrackets drops every leading "[...] " group.
func stripBrackets(s string) string {
	for {
		_, rest, ok := cutBracket(s)
		if !ok {
			return s
		}
		s = rest
	}
}

func isLogLevel(s string) bool {
	switch s {
	case "quiet", "panic", "fatal", "error", "warning", "info", "verbose", "debug", "trace":
		return true
	}
	return false
}
