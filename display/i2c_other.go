//go:build !linux

package display

import (
	"errors"
	"runtime"
)

// I2CBus is only available on Linux (i2c-dev).
type I2CBus struct{}

func OpenI2C(dev string, addr int) (*I2CBus, error) {
	return nil, errors.New("i2c display not supported on " + runtime.GOOS)
}

func (b *I2CBus) Tx(p []byte) error { return errors.New("i2c: not supported") }

func (b *I2CBus) Close() error { return nil }
