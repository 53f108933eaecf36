// Package testutil holds helpers shared by the package tests.
package testutil

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"testing"
	"time"
)

// TempFile creates a temporary file with the given content and returns its path.
// The file is automatically cleaned up when the test ends.
func TempFile(t testing.TB, pattern string, content []byte) string {
	t.Helper()

	tmpfile, err := os.CreateTemp(t.TempDir(), pattern)
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	if _, err := tmpfile.Write(content); err != nil {
		tmpfile.Close()
		t.Fatalf("failed to write to temp file: %v", err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatalf("failed to close temp file: %v", err)
	}
	return tmpfile.Name()
}

// Context returns a context cancelled when the test ends, or after a minute.
func Context(t testing.TB) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	t.Cleanup(cancel)
	return ctx
}

// PhoneBook generates count lines, every third one a Hungarian phone number,
// and returns the whole text plus the expected phone number lines.
func PhoneBook(seed int64, count int) (text string, numbers string) {
	rnd := rand.New(rand.NewSource(seed))
	var all, matching strings.Builder
	for i := 0; i < count; i++ {
		var line string
		switch i % 3 {
		case 0:
			line = fmt.Sprintf("+36 %d %03d %04d", 20+rnd.Intn(60), rnd.Intn(1000), rnd.Intn(10000))
			matching.WriteString(line)
			matching.WriteByte('\n')
		case 1:
			line = fmt.Sprintf("contact %d: no number on file", i)
		default:
			line = fmt.Sprintf("+49 30 %07d", rnd.Intn(10000000))
		}
		all.WriteString(line)
		all.WriteByte('\n')
	}
	return all.String(), matching.String()
}
