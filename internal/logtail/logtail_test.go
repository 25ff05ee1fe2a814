package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestRead(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		if i == 5 {
			content.WriteString("\n")
		}
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0o644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{name: "zero", maxLines: 0, expected: nil},
		{name: "negative", maxLines: -1, expected: nil},
		{name: "partial", maxLines: 5, expected: expectedAll[5:]},
		{name: "exactly all", maxLines: 10, expected: expectedAll},
		{name: "more than exists", maxLines: 20, expected: expectedAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read returned error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Fatalf("Read = %#v, want %#v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	lines, err := Read(filepath.Join(t.TempDir(), "nope.log"), 10)
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if lines != nil {
		t.Fatalf("Read = %#v, want nil", lines)
	}
}

func TestParse_ZapJSON(t *testing.T) {
	line := `{"level":"warn","ts":"2025-05-06T07:08:09.123Z","logger":"drift.reconcile","caller":"reconcile/reconciler.go:10","msg":"sync failed","op":"login","error_type":"connection"}`

	e := Parse(line)
	if e.Level != "warn" || e.Logger != "drift.reconcile" || e.Message != "sync failed" {
		t.Fatalf("Parse = %#v", e)
	}
	want := time.Date(2025, 5, 6, 7, 8, 9, 123000000, time.UTC)
	if !e.Time.Equal(want) {
		t.Fatalf("Time = %v, want %v", e.Time, want)
	}
	if _, ok := e.Fields["caller"]; ok {
		t.Fatalf("caller should not be a field")
	}
	if e.Fields["op"] != "login" {
		t.Fatalf("Fields = %#v, want op=login", e.Fields)
	}

	formatted := e.Format()
	if !strings.Contains(formatted, "WARN") || !strings.HasSuffix(formatted, "sync failed error_type=connection op=login") {
		t.Fatalf("Format = %q", formatted)
	}
}

func TestParse_EpochTimestampAndPlainText(t *testing.T) {
	e := Parse(`{"level":"info","ts":1700000000.5,"msg":"hi"}`)
	if e.Time.Unix() != 1700000000 || e.Time.Nanosecond() != 500000000 {
		t.Fatalf("Time = %v, want epoch 1700000000.5", e.Time)
	}
	if e.Fields != nil {
		t.Fatalf("Fields = %#v, want nil", e.Fields)
	}

	plain := Parse("panic: something broke")
	if plain.Raw != "panic: something broke" || plain.Format() != plain.Raw {
		t.Fatalf("plain entry = %#v", plain)
	}
}

func TestTail(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "drift.log")
	data := `{"level":"info","msg":"one"}
{"level":"info","msg":"two"}
{"level":"error","msg":"three"}
`
	if err := os.WriteFile(logPath, []byte(data), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	entries, err := Tail(logPath, 2)
	if err != nil {
		t.Fatalf("Tail returned error: %v", err)
	}
	if len(entries) != 2 || entries[0].Message != "two" || entries[1].Level != "error" {
		t.Fatalf("Tail = %#v", entries)
	}
}
