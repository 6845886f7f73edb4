package version

import (
	"strconv"
	"strings"
	"testing"
)

func TestVersionSegments(t *testing.T) {
	if VERSION == "" {
		t.Fatal("VERSION is empty")
	}
	if got := strconv.Itoa(MAJOR) + "." + strconv.Itoa(MINOR) + "." + strconv.Itoa(FIX); !strings.HasPrefix(VERSION, got) {
		t.Fatalf("segments %s do not match VERSION %s", got, VERSION)
	}
}
