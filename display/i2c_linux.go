//go:build linux

package display

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// i2cSlave is the i2c-dev ioctl that binds a file descriptor to an address.
const i2cSlave = 0x0703

// I2CBus writes to one device on a Linux i2c-dev bus such as /dev/i2c-1.
type I2CBus struct {
	f    *os.File
	addr int
}

// OpenI2C opens dev and binds it to the 7-bit address addr.
func OpenI2C(dev string, addr int) (*I2CBus, error) {
	f, err := os.OpenFile(dev, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dev, err)
	}
	if err := unix.IoctlSetInt(int(f.Fd()), i2cSlave, addr); err != nil {
		f.Close()
		return nil, fmt.Errorf("bind %s to 0x%02x: %w", dev, addr, err)
	}
	return &I2CBus{f: f, addr: addr}, nil
}

func (b *I2CBus) Tx(p []byte) error {
	n, err := b.f.Write(p)
	if err != nil {
		return fmt.Errorf("i2c 0x%02x write: %w", b.addr, err)
	}
	if n != len(p) {
		return fmt.Errorf("i2c 0x%02x short write: %d of %d bytes", b.addr, n, len(p))
	}
	return nil
}

func (b *I2CBus) Close() error {
	return b.f.Close()
}
