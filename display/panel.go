package display

import (
	"errors"
	"fmt"
	"sync"
)

// ErrEmptyTx is returned for a transaction with no control byte.
var ErrEmptyTx = errors.New("display: empty transaction")

// commandArgs lists how many parameter bytes follow each multi-byte command.
var commandArgs = map[byte]int{
	cmdMemoryMode:    1,
	cmdColumnAddr:    2,
	cmdPageAddr:      2,
	cmdContrast:      1,
	cmdChargePump:    1,
	cmdMultiplex:     1,
	cmdDisplayOffset: 1,
	cmdClockDiv:      1,
	cmdPrecharge:     1,
	cmdComPins:       1,
	cmdVcomDetect:    1,
}

// PanelState is a point-in-time copy of an emulated panel.
type PanelState struct {
	Width, Height int
	RAM           []byte // page-major, same layout as Framebuffer
	On            bool
	Inverted      bool
	EntireOn      bool
	Contrast      byte
	Version       uint64 // bumps on every data write or visible state change
}

// Pixel reports whether (x, y) is lit in the copied RAM, ignoring On/Inverted.
func (s PanelState) Pixel(x, y int) bool {
	if x < 0 || x >= s.Width || y < 0 || y >= s.Height {
		return false
	}
	return s.RAM[x+(y/8)*s.Width]&(1<<uint(y%8)) != 0
}

// Panel emulates the subset of an SSD1306 that the driver exercises: it
// decodes command and data transactions into display RAM. It implements Bus
// and is safe for concurrent use.
type Panel struct {
	mu sync.Mutex

	width, height int
	ram           []byte

	mode                 byte
	page, col            int
	colStart, colEnd     int
	pageStart, pageEnd   int
	on, inverted, allOn  bool
	contrast             byte
	chargePump           bool
	multiplex, startLine byte

	pendingCmd  byte
	pendingArgs []byte
	need        int

	version uint64
	txs     uint64
}

// NewPanel creates a powered-off panel with cleared RAM.
func NewPanel(width, height int) *Panel {
	return &Panel{
		width:     width,
		height:    height,
		ram:       make([]byte, width*height/8),
		mode:      addressingPage,
		colEnd:    width - 1,
		pageEnd:   height/8 - 1,
		contrast:  0x7F,
		multiplex: byte(height - 1),
	}
}

// Tx decodes one bus transaction.
func (p *Panel) Tx(b []byte) error {
	if len(b) == 0 {
		return ErrEmptyTx
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.txs++

	control, payload := b[0], b[1:]
	if control&controlData != 0 {
		for _, v := range payload {
			p.writeRAM(v)
		}
		if len(payload) > 0 {
			p.version++
		}
		return nil
	}
	for _, v := range payload {
		if err := p.command(v); err != nil {
			return err
		}
	}
	return nil
}

func (p *Panel) command(v byte) error {
	if p.need > 0 {
		p.pendingArgs = append(p.pendingArgs, v)
		p.need--
		if p.need == 0 {
			p.apply(p.pendingCmd, p.pendingArgs)
			p.pendingArgs = p.pendingArgs[:0]
		}
		return nil
	}
	if n, ok := commandArgs[v]; ok {
		p.pendingCmd = v
		p.need = n
		return nil
	}
	p.apply(v, nil)
	return nil
}

func (p *Panel) apply(cmd byte, args []byte) {
	pages := p.height / 8
	switch {
	case cmd <= 0x0F:
		p.col = p.col&0xF0 | int(cmd&0x0F)
	case cmd >= cmdSetHighColumn && cmd <= 0x1F:
		p.col = p.col&0x0F | int(cmd&0x0F)<<4
	case cmd == cmdMemoryMode:
		p.mode = args[0] & 0x03
	case cmd == cmdColumnAddr:
		p.colStart = clamp(int(args[0]), 0, p.width-1)
		p.colEnd = clamp(int(args[1]), p.colStart, p.width-1)
		p.col = p.colStart
	case cmd == cmdPageAddr:
		p.pageStart = clamp(int(args[0]), 0, pages-1)
		p.pageEnd = clamp(int(args[1]), p.pageStart, pages-1)
		p.page = p.pageStart
	case cmd >= cmdStartLine && cmd <= 0x7F:
		p.startLine = cmd & 0x3F
	case cmd == cmdContrast:
		p.contrast = args[0]
		p.version++
	case cmd == cmdChargePump:
		p.chargePump = args[0]&0x04 != 0
	case cmd == cmdMultiplex:
		p.multiplex = args[0]
	case cmd == cmdResumeRAM, cmd == cmdEntireOn:
		p.allOn = cmd == cmdEntireOn
		p.version++
	case cmd == cmdNormalDisplay, cmd == cmdInvertDisplay:
		p.inverted = cmd == cmdInvertDisplay
		p.version++
	case cmd == cmdDisplayOff, cmd == cmdDisplayOn:
		p.on = cmd == cmdDisplayOn
		p.version++
	case cmd >= cmdPageStart && cmd <= 0xB7:
		p.page = clamp(int(cmd&0x07), 0, pages-1)
	}
	// Remaining commands (remap, scan direction, timing) do not affect RAM.
}

func (p *Panel) writeRAM(v byte) {
	if p.col < p.width && p.page < p.height/8 {
		p.ram[p.page*p.width+p.col] = v
	}
	switch p.mode {
	case addressingHorizontal:
		p.col++
		if p.col > p.colEnd {
			p.col = p.colStart
			p.page++
			if p.page > p.pageEnd {
				p.page = p.pageStart
			}
		}
	case 0x01: // vertical
		p.page++
		if p.page > p.pageEnd {
			p.page = p.pageStart
			p.col++
			if p.col > p.colEnd {
				p.col = p.colStart
			}
		}
	default:
		p.col++
		if p.col > p.colEnd {
			p.col = p.colStart
		}
	}
}

// Snapshot copies the panel's visible state.
func (p *Panel) Snapshot() PanelState {
	p.mu.Lock()
	defer p.mu.Unlock()
	ram := make([]byte, len(p.ram))
	copy(ram, p.ram)
	return PanelState{
		Width:    p.width,
		Height:   p.height,
		RAM:      ram,
		On:       p.on,
		Inverted: p.inverted,
		EntireOn: p.allOn,
		Contrast: p.contrast,
		Version:  p.version,
	}
}

// Version returns the change counter without copying RAM.
func (p *Panel) Version() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.version
}

// Transactions counts non-empty Tx calls.
func (p *Panel) Transactions() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.txs
}

func (p *Panel) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fmt.Sprintf("panel %dx%d on=%t page=%d col=%d mode=%d", p.width, p.height, p.on, p.page, p.col, p.mode)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
