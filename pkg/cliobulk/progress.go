package cliobulk

import(
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// Progress is one IPC record. The controller reads these as a stream
// of JSON lines from our stdout; percentages are not guaranteed to be
// non-decreasing when workers interleave, and consumers know that.
type Progress struct {
	Progress    float64 `json:"progress"`     // 0.0 - 100.0
	CurrentFile string  `json:"current_file"`
	Status      string  `json:"status"`       // "processing", "error: ...", "complete"
}

// A ProgressWriter serializes records onto a stream. Each record goes
// out as one complete newline-terminated write under the lock, so
// concurrent workers can never interleave partial lines and corrupt
// the protocol.
type ProgressWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func NewProgressWriter(w io.Writer) *ProgressWriter {
	return &ProgressWriter{w: w}
}

func (pw *ProgressWriter)emit(p Progress) {
	line, err := json.Marshal(p)
	if err != nil {
		return // can't happen for this shape; drop rather than corrupt the stream
	}
	line = append(line, '\n')

	pw.mu.Lock()
	defer pw.mu.Unlock()
	pw.w.Write(line)
}

func (pw *ProgressWriter)Processing(pct float64, name string) {
	pw.emit(Progress{Progress: pct, CurrentFile: name, Status: "processing"})
}

func (pw *ProgressWriter)Failed(pct float64, name string, err error) {
	pw.emit(Progress{Progress: pct, CurrentFile: name, Status: fmt.Sprintf("error: %v", err)})
}

func (pw *ProgressWriter)Complete() {
	pw.emit(Progress{Progress: 100.0, CurrentFile: "Done", Status: "complete"})
}
