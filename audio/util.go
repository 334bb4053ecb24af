package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Downshift converts one raw 32-bit microphone slot to a 16-bit sample by an
// arithmetic right shift. The result is truncated to the low 16 bits, so a
// shift too small for the converter's data width wraps instead of clamping.
func Downshift(raw int32, shift uint) int16 {
	return int16(raw >> shift)
}

// pcmReader decodes interleaved little-endian signed 32-bit mono PCM.
type pcmReader struct {
	r       io.Reader
	scratch []byte
}

func newPCMReader(r io.Reader) *pcmReader {
	return &pcmReader{r: r}
}

// read fills buf with whole samples. A short tail at end of stream is
// returned with io.EOF; a partial trailing sample is discarded.
func (p *pcmReader) read(buf []int32) (int, error) {
	need := len(buf) * 4
	if cap(p.scratch) < need {
		p.scratch = make([]byte, need)
	}
	b := p.scratch[:need]

	n, err := io.ReadFull(p.r, b)
	samples := n / 4
	for i := 0; i < samples; i++ {
		buf[i] = int32(binary.LittleEndian.Uint32(b[i*4:]))
	}
	switch {
	case err == nil:
		return samples, nil
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return samples, io.EOF
	default:
		return samples, fmt.Errorf("read pcm: %w", err)
	}
}
