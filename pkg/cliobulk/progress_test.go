package cliobulk

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
)

func decodeRecords(t *testing.T, buf *bytes.Buffer) []Progress {
	t.Helper()
	var records []Progress
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		var p Progress
		if err := json.Unmarshal(scanner.Bytes(), &p); err != nil {
			t.Fatalf("bad record %q: %v", scanner.Text(), err)
		}
		records = append(records, p)
	}
	return records
}

func TestProgressRecords(t *testing.T) {
	var buf bytes.Buffer
	pw := NewProgressWriter(&buf)

	pw.Processing(0, "a.jpg")
	pw.Failed(50, "b.dng", errors.New("no CFA image"))
	pw.Complete()

	records := decodeRecords(t, &buf)
	want := []Progress{
		{Progress: 0, CurrentFile: "a.jpg", Status: "processing"},
		{Progress: 50, CurrentFile: "b.dng", Status: "error: no CFA image"},
		{Progress: 100, CurrentFile: "Done", Status: "complete"},
	}
	if len(records) != len(want) {
		t.Fatalf("got %d records, want %d", len(records), len(want))
	}
	for i := range want {
		if records[i] != want[i] {
			t.Errorf("record %d = %+v, want %+v", i, records[i], want[i])
		}
	}
}

func TestProgressWireFieldNames(t *testing.T) {
	var buf bytes.Buffer
	NewProgressWriter(&buf).Processing(12.5, "x.png")

	line := strings.TrimSpace(buf.String())
	for _, key := range []string{`"progress":12.5`, `"current_file":"x.png"`, `"status":"processing"`} {
		if !strings.Contains(line, key) {
			t.Errorf("record %s missing %s", line, key)
		}
	}
}

func TestProgressConcurrentLinesStayWhole(t *testing.T) {
	var buf bytes.Buffer
	pw := NewProgressWriter(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			pw.Processing(float64(n), "file.jpg")
		}(i)
	}
	wg.Wait()

	records := decodeRecords(t, &buf)
	if len(records) != 32 {
		t.Errorf("got %d parseable records, want 32", len(records))
	}
}
