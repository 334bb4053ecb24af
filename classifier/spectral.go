package classifier

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"
	"sync"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// steepness sets how sharply the abnormal score moves from 0 to 1 as the
// band share crosses the threshold.
const steepness = 12.0

// Spectral is an untrained baseline model. It measures what share of a
// window's spectral energy falls inside a fault band (bearing whine, blade
// rub) and maps that share through a logistic centred on Threshold.
type Spectral struct {
	SampleRate    float64
	LowHz, HighHz float64
	Threshold     float64 // band share scoring 0.5 for both labels
	NormalLabel   string
	AbnormalLabel string

	mu      sync.Mutex
	samples []float32
	input   []float64
	hann    []float64
}

func NewSpectral(sampleRate, lowHz, highHz, threshold float64, normalLabel, abnormalLabel string) (*Spectral, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("spectral: sample rate must be positive, got %v", sampleRate)
	}
	if lowHz < 0 || highHz <= lowHz {
		return nil, fmt.Errorf("spectral: empty band [%v, %v] Hz", lowHz, highHz)
	}
	return &Spectral{
		SampleRate:    sampleRate,
		LowHz:         lowHz,
		HighHz:        highHz,
		Threshold:     threshold,
		NormalLabel:   normalLabel,
		AbnormalLabel: abnormalLabel,
	}, nil
}

func (s *Spectral) Labels() []string {
	return []string{s.NormalLabel, s.AbnormalLabel}
}

func (s *Spectral) Classify(ctx context.Context, sig Signal) (Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := sig.TotalLength()
	if n == 0 {
		return nil, ErrEmptySignal
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.samples) != n {
		s.samples = make([]float32, n)
		s.input = make([]float64, n)
		s.hann = window.Hann(n)
	}
	if err := sig.Get(0, n, s.samples); err != nil {
		return nil, fmt.Errorf("spectral: read signal: %w", err)
	}

	share := s.bandShare(n)
	abnormal := float32(1 / (1 + math.Exp(-steepness*(share-s.Threshold))))
	if share < 0 {
		abnormal = 0
	}
	return Result{
		{Label: s.NormalLabel, Value: 1 - abnormal},
		{Label: s.AbnormalLabel, Value: abnormal},
	}, nil
}

// bandShare returns the fraction of non-DC energy in [LowHz, HighHz], or -1
// for a silent window.
func (s *Spectral) bandShare(n int) float64 {
	var mean float64
	for _, v := range s.samples {
		mean += float64(v)
	}
	mean /= float64(n)
	for i, v := range s.samples {
		s.input[i] = (float64(v) - mean) * s.hann[i]
	}

	spectrum := fft.FFTReal(s.input)
	binHz := s.SampleRate / float64(n)

	var total, band float64
	for k := 1; k <= n/2; k++ {
		p := cmplx.Abs(spectrum[k])
		p *= p
		total += p
		if f := float64(k) * binHz; f >= s.LowHz && f <= s.HighHz {
			band += p
		}
	}
	if total < 1e-12 {
		return -1
	}
	return band / total
}
