// Package classifier defines the contract between the inference cycle and
// an acoustic model, plus the label scoring and decision rule applied to a
// model's output.
package classifier

import (
	"context"
	"errors"
	"strings"
)

// ErrEmptySignal is returned by classifiers given a zero-length signal.
var ErrEmptySignal = errors.New("classifier: empty signal")

// Classification is one (label, confidence) pair. Confidences of different
// labels are independent and need not sum to 1.
type Classification struct {
	Label string
	Value float32
}

// Result is a model's ordered per-label output.
type Result []Classification

// Classifier scores one fixed-length signal. Implementations are called from
// a single goroutine.
type Classifier interface {
	Classify(ctx context.Context, sig Signal) (Result, error)
	// Labels lists the labels Classify emits, in output order.
	Labels() []string
}

// Scores extracts the normal and abnormal confidences from r by
// case-insensitive label match. Labels matching neither are ignored and a
// missing label scores 0. If a label repeats, the last occurrence wins.
func Scores(r Result, normalLabel, abnormalLabel string) (normal, abnormal float32) {
	for _, c := range r {
		switch {
		case strings.EqualFold(c.Label, normalLabel):
			normal = c.Value
		case strings.EqualFold(c.Label, abnormalLabel):
			abnormal = c.Value
		}
	}
	return normal, abnormal
}

// Verdict is the outcome of one inference.
type Verdict int

const (
	Normal Verdict = iota
	Anomaly
)

func (v Verdict) String() string {
	if v == Anomaly {
		return "anomaly"
	}
	return "normal"
}

// Decide reports Anomaly only when the abnormal score is strictly greater;
// ties resolve to Normal.
func Decide(normal, abnormal float32) Verdict {
	if abnormal > normal {
		return Anomaly
	}
	return Normal
}
