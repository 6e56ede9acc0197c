package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	old := Version
	Version = "1.2.3"
	defer func() { Version = old }()

	s := String()
	if !strings.HasPrefix(s, "1.2.3 (commit ") {
		t.Errorf("String() = %q", s)
	}
	if attrs := LogAttrs(); len(attrs)%2 != 0 || attrs[1] != "1.2.3" {
		t.Errorf("LogAttrs() = %v", attrs)
	}
}
