package display

import (
	"fmt"
	"log/slog"
)

// Control bytes that prefix every bus transaction.
const (
	controlCommand = 0x00
	controlData    = 0x40
)

// SSD1306 commands used by the driver and understood by Panel.
const (
	cmdSetLowColumn      = 0x00 // 0x00-0x0F
	cmdSetHighColumn     = 0x10 // 0x10-0x1F
	cmdMemoryMode        = 0x20
	cmdColumnAddr        = 0x21
	cmdPageAddr          = 0x22
	cmdStartLine         = 0x40 // 0x40-0x7F
	cmdContrast          = 0x81
	cmdChargePump        = 0x8D
	cmdSegRemap          = 0xA0 // | 1 to remap
	cmdResumeRAM         = 0xA4
	cmdEntireOn          = 0xA5
	cmdNormalDisplay     = 0xA6
	cmdInvertDisplay     = 0xA7
	cmdMultiplex         = 0xA8
	cmdDisplayOff        = 0xAE
	cmdDisplayOn         = 0xAF
	cmdPageStart         = 0xB0 // 0xB0-0xB7
	cmdComScanDec        = 0xC8
	cmdDisplayOffset     = 0xD3
	cmdClockDiv          = 0xD5
	cmdPrecharge         = 0xD9
	cmdComPins           = 0xDA
	cmdVcomDetect        = 0xDB
	addressingHorizontal = 0x00
	addressingPage       = 0x02
)

// initSequence brings a 128x64 panel from reset to on, horizontal addressing.
var initSequence = []byte{
	cmdDisplayOff,
	cmdMemoryMode, addressingHorizontal,
	cmdPageStart,
	cmdComScanDec,
	cmdSetLowColumn,
	cmdSetHighColumn,
	cmdStartLine,
	cmdContrast, 0x7F,
	cmdSegRemap | 0x01,
	cmdNormalDisplay,
	cmdMultiplex, 0x3F,
	cmdResumeRAM,
	cmdDisplayOffset, 0x00,
	cmdClockDiv, 0x80,
	cmdPrecharge, 0xF1,
	cmdComPins, 0x12,
	cmdVcomDetect, 0x40,
	cmdChargePump, 0x14,
	cmdDisplayOn,
}

// SSD1306 drives an SSD1306 OLED controller over a Bus.
type SSD1306 struct {
	bus  Bus
	data []byte // reused: control byte + one page
}

// NewSSD1306 wraps bus for a panel that is width columns wide.
func NewSSD1306(bus Bus, width int) *SSD1306 {
	return &SSD1306{
		bus:  bus,
		data: make([]byte, 1+width),
	}
}

// Command sends a single command byte in its own transaction.
func (d *SSD1306) Command(cmd byte) error {
	if err := d.bus.Tx([]byte{controlCommand, cmd}); err != nil {
		return fmt.Errorf("ssd1306 command 0x%02X: %w", cmd, err)
	}
	return nil
}

// Init runs the power-on sequence. Any failure leaves the panel in an
// unknown state and should abort startup.
func (d *SSD1306) Init() error {
	for _, cmd := range initSequence {
		if err := d.Command(cmd); err != nil {
			return fmt.Errorf("ssd1306 init: %w", err)
		}
	}
	slog.Debug("display: ssd1306 initialised", "commands", len(initSequence))
	return nil
}

// WritePage selects page and column 0, then writes data in one burst.
func (d *SSD1306) WritePage(page int, data []byte) error {
	for _, cmd := range [...]byte{cmdPageStart + byte(page), cmdSetLowColumn, cmdSetHighColumn} {
		if err := d.Command(cmd); err != nil {
			return err
		}
	}
	if len(data)+1 > len(d.data) {
		d.data = make([]byte, 1+len(data))
	}
	buf := d.data[:1+len(data)]
	buf[0] = controlData
	copy(buf[1:], data)
	if err := d.bus.Tx(buf); err != nil {
		return fmt.Errorf("ssd1306 page %d data: %w", page, err)
	}
	return nil
}
