package llmcall

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/jackzampolin/tableqa/internal/providers"
)

// Recorder appends calls to a writer, one JSON object per line.
// A nil *Recorder records nothing.
type Recorder struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	logger *slog.Logger
}

// NewRecorder creates a recorder writing to w.
func NewRecorder(w io.Writer, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{w: w, logger: logger}
}

// OpenFile creates a recorder appending to path.
func OpenFile(path string, logger *slog.Logger) (*Recorder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open call log: %w", err)
	}
	r := NewRecorder(f, logger)
	r.closer = f
	return r, nil
}

// Record captures an LLM call. Write failures are logged, not returned,
// so a broken call log never fails a run.
func (r *Recorder) Record(result *providers.ChatResult, opts RecordOptions) {
	if r == nil {
		return
	}
	r.RecordCall(FromChatResult(result, opts))
}

// RecordCall captures an already-constructed Call.
func (r *Recorder) RecordCall(call *Call) {
	if r == nil || call == nil {
		return
	}
	data, err := json.Marshal(call)
	if err != nil {
		r.logger.Warn("failed to serialize LLM call record", "error", err, "call_id", call.ID)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.w.Write(append(data, '\n')); err != nil {
		r.logger.Warn("failed to write LLM call record", "error", err, "call_id", call.ID)
	}
}

// Close closes the underlying file, if the recorder opened one.
func (r *Recorder) Close() error {
	if r == nil || r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
