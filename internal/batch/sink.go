package batch

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/gramscope/internal/model"
)

// Sink receives successful records. Failed identifiers never reach it.
type Sink interface {
	Push(ctx context.Context, rec *model.ProfileRecord) error
	Close() error
}

// datasetRecord is the emitted wire shape: error is always null here since
// only successes are pushed.
type datasetRecord struct {
	Identifier string         `json:"identifier"`
	Fields     map[string]any `json:"fields"`
	Error      *string        `json:"error"`
}

// JSONLSink writes one JSON object per record.
type JSONLSink struct {
	mu     sync.Mutex
	enc    *json.Encoder
	closer io.Closer
}

// NewJSONLSink creates a sink over the writer. If w is also an io.Closer it
// is closed with the sink.
func NewJSONLSink(w io.Writer) *JSONLSink {
	s := &JSONLSink{enc: json.NewEncoder(w)}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// Push implements Sink.
func (s *JSONLSink) Push(_ context.Context, rec *model.ProfileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(datasetRecord{
		Identifier: rec.Identifier,
		Fields:     rec.Fields,
	}); err != nil {
		return eris.Wrapf(err, "sink: encode record %s", rec.Identifier)
	}
	return nil
}

// Close implements Sink.
func (s *JSONLSink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
