package records

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	return lines
}

func TestAppendCreatesDirectoryAndWritesCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "applications", "applications.csv")
	a := NewAppender(FormatCSV)

	if err := a.Append([]string{"2026-01-01 10:00:00", "Meera", "likes, commas", `says "hi"`, "203.0.113.9"}, path); err != nil {
		t.Fatalf("append: %v", err)
	}

	lines := readLines(t, path)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	want := `2026-01-01 10:00:00,Meera,"likes, commas","says ""hi""",203.0.113.9`
	if lines[0] != want {
		t.Fatalf("unexpected line:\n got %s\nwant %s", lines[0], want)
	}
}

func TestAppendFlattensEmbeddedNewlines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.csv")
	a := NewAppender(FormatCSV)

	if err := a.Append([]string{"ts", "line one\nline two\r\nline three\rend", "ip"}, path); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := a.Append([]string{"ts", "second", "ip"}, path); err != nil {
		t.Fatalf("append: %v", err)
	}

	lines := readLines(t, path)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), lines)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if got := rows[0][1]; got != "line one | line two | line three | end" {
		t.Fatalf("unexpected flattened value: %q", got)
	}
}

func TestAppendPipeFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "downloads.log")
	a := NewAppender(FormatPipe)

	if err := a.Append([]string{"2026-01-01 10:00:00", "203.0.113.9", "curl/8.0", "syllabus", "Syllabus.pdf", "Direct"}, path); err != nil {
		t.Fatalf("append: %v", err)
	}

	lines := readLines(t, path)
	want := "2026-01-01 10:00:00 | 203.0.113.9 | curl/8.0 | syllabus | Syllabus.pdf | Direct"
	if len(lines) != 1 || lines[0] != want {
		t.Fatalf("unexpected lines: %q", lines)
	}
}

func TestAppendConcurrentWritersNeverInterleave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.csv")
	a := NewAppender(FormatCSV)
	long := strings.Repeat("x", 8<<10)

	const writers = 16
	const perWriter = 25
	var wg sync.WaitGroup
	errs := make(chan error, writers*perWriter)
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				if err := a.Append([]string{fmt.Sprintf("%d-%d", w, i), long, "multi\nline"}, path); err != nil {
					errs <- err
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("append: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = 3
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != writers*perWriter {
		t.Fatalf("expected %d rows, got %d", writers*perWriter, len(rows))
	}
	for _, row := range rows {
		if row[1] != long || row[2] != "multi | line" {
			t.Fatalf("corrupted row for %s", row[0])
		}
	}
}

func TestAppendReportsUncreatableDirectory(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("file"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}

	err := NewAppender(FormatCSV).Append([]string{"a"}, filepath.Join(blocker, "sub", "records.csv"))
	if err == nil {
		t.Fatalf("expected error when directory cannot be created")
	}
}

func TestAppendRejectsEmptyPath(t *testing.T) {
	if err := NewAppender(FormatCSV).Append([]string{"a"}, " "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
