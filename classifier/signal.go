package classifier

// Signal gives a classifier random access to a fixed-length input without
// copying it first.
type Signal interface {
	// TotalLength is the number of samples available.
	TotalLength() int
	// Get writes samples [offset, offset+length) into out as float32.
	// A nil error is the only success status.
	Get(offset, length int, out []float32) error
}

// WindowSignal reads a window of 16-bit samples, widening each one to
// float32 without scaling. Callers stay within TotalLength; the adapter does
// not check.
type WindowSignal struct {
	samples []int16
}

func NewWindowSignal(samples []int16) *WindowSignal {
	return &WindowSignal{samples: samples}
}

// Reset points the adapter at another window, so one value can be reused
// across cycles.
func (w *WindowSignal) Reset(samples []int16) {
	w.samples = samples
}

func (w *WindowSignal) TotalLength() int { return len(w.samples) }

func (w *WindowSignal) Get(offset, length int, out []float32) error {
	src := w.samples[offset : offset+length]
	for i, s := range src {
		out[i] = float32(s)
	}
	return nil
}
