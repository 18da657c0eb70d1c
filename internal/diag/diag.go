// Package diag is the converter's leveled diagnostic sink. Conversion problems
// are logged through zap with a category and counted; they never abort the
// conversion as a whole.
package diag

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Kind categorizes a diagnostic.
type Kind int

const (
	// MissingReference is an unresolved joint, skeleton root or animation target.
	MissingReference Kind = iota
	// UnsupportedFeature covers morph targets, non-triangle polygons and
	// non-common material profiles.
	UnsupportedFeature
	// InconsistentData covers mismatched source lengths, excess bone influences
	// and non-convergent curve inversion.
	InconsistentData
	// DegenerateData covers zero or huge total skin weights and empty animation windows.
	DegenerateData

	numKinds
)

// Kinds lists every category in declaration order.
func Kinds() []Kind {
	return []Kind{MissingReference, UnsupportedFeature, InconsistentData, DegenerateData}
}

// String returns the category name.
func (k Kind) String() string {
	switch k {
	case MissingReference:
		return "MissingReference"
	case UnsupportedFeature:
		return "UnsupportedFeature"
	case InconsistentData:
		return "InconsistentData"
	case DegenerateData:
		return "DegenerateData"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

type counters struct {
	mu sync.Mutex
	n  [numKinds]int
}

// Sink logs and counts diagnostics. Sinks derived with With share counters.
// A nil *Sink discards everything. Safe for concurrent use.
type Sink struct {
	log    *zap.Logger
	counts *counters
}

// New returns a sink writing to log. A nil logger discards output but still counts.
func New(log *zap.Logger) *Sink {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sink{log: log, counts: &counters{}}
}

// Nop returns a sink that only counts.
func Nop() *Sink {
	return New(nil)
}

// Logger returns the underlying logger.
func (s *Sink) Logger() *zap.Logger {
	if s == nil {
		return zap.NewNop()
	}
	return s.log
}

// With returns a sink that adds fields to every entry and shares counters with s.
func (s *Sink) With(fields ...zap.Field) *Sink {
	if s == nil {
		return nil
	}
	return &Sink{log: s.log.With(fields...), counts: s.counts}
}

// Warn records a recoverable problem.
func (s *Sink) Warn(kind Kind, msg string, fields ...zap.Field) {
	if s == nil {
		return
	}
	s.count(kind, 1)
	s.log.Warn(msg, append(fields, zap.Stringer("kind", kind))...)
}

// Error records a failed conversion unit (chunk, skin, channel or animation).
func (s *Sink) Error(kind Kind, msg string, err error, fields ...zap.Field) {
	if s == nil {
		return
	}
	s.count(kind, 1)
	s.log.Error(msg, append(fields, zap.Stringer("kind", kind), zap.Error(err))...)
}

// Tally adds n occurrences of kind without logging, for bulk per-vertex counts
// that are reported once in aggregate.
func (s *Sink) Tally(kind Kind, n int) {
	if s == nil || n <= 0 {
		return
	}
	s.count(kind, n)
}

// Info logs an informational message.
func (s *Sink) Info(msg string, fields ...zap.Field) {
	if s == nil {
		return
	}
	s.log.Info(msg, fields...)
}

// Debug logs a debug message.
func (s *Sink) Debug(msg string, fields ...zap.Field) {
	if s == nil {
		return
	}
	s.log.Debug(msg, fields...)
}

// Count returns the number of diagnostics recorded for kind.
func (s *Sink) Count(kind Kind) int {
	if s == nil || kind < 0 || kind >= numKinds {
		return 0
	}
	s.counts.mu.Lock()
	defer s.counts.mu.Unlock()
	return s.counts.n[kind]
}

// Counts returns a snapshot of every non-zero counter.
func (s *Sink) Counts() map[Kind]int {
	out := make(map[Kind]int)
	if s == nil {
		return out
	}
	s.counts.mu.Lock()
	defer s.counts.mu.Unlock()
	for k, n := range s.counts.n {
		if n > 0 {
			out[Kind(k)] = n
		}
	}
	return out
}

// Total returns the sum of all counters.
func (s *Sink) Total() int {
	total := 0
	for _, n := range s.Counts() {
		total += n
	}
	return total
}

func (s *Sink) count(kind Kind, n int) {
	if kind < 0 || kind >= numKinds {
		return
	}
	s.counts.mu.Lock()
	s.counts.n[kind] += n
	s.counts.mu.Unlock()
}
