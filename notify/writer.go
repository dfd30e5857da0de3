package notify

import (
	"context"
	"encoding/json"
	"io"
	"sync"
)

// Writer is a development Sender that writes one JSON object per code to an
// io.Writer instead of delivering anything.
type Writer struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewWriter creates a Writer sender targeting w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{writer: w}
}

// Send writes the email/code pair as a JSON line.
func (s *Writer) Send(_ context.Context, email, code string) error {
	data, err := json.Marshal(codeMessage{Email: email, Code: code})
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.writer.Write(data); err != nil {
		return err
	}
	_, err = s.writer.Write([]byte("\n"))
	return err
}
