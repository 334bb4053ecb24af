package display

import (
	"bytes"
	"errors"
	"testing"
)

func newTestPanel(t *testing.T) (*Panel, *SSD1306) {
	t.Helper()
	panel := NewPanel(testWidth, testHeight)
	drv := NewSSD1306(panel, testWidth)
	if err := drv.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return panel, drv
}

func TestInitTurnsPanelOn(t *testing.T) {
	panel, _ := newTestPanel(t)
	st := panel.Snapshot()
	if !st.On {
		t.Error("panel should be on after Init")
	}
	if st.Inverted || st.EntireOn {
		t.Errorf("unexpected state inverted=%t entireOn=%t", st.Inverted, st.EntireOn)
	}
	if st.Contrast != 0x7F {
		t.Errorf("Contrast = 0x%02x, want 0x7f", st.Contrast)
	}
	// One transaction per command byte, arguments included.
	if got := panel.Transactions(); got != uint64(len(initSequence)) {
		t.Errorf("Transactions = %d, want %d", got, len(initSequence))
	}
}

func TestFlushThroughPanelReproducesFramebuffer(t *testing.T) {
	panel, drv := newTestPanel(t)

	fb := NewFramebuffer(testWidth, testHeight)
	DrawStatus(fb, Status{Title: "FAN STATUS", Anomaly: true, Normal: 0.12, Abnormal: 0.88})
	if err := fb.Flush(drv); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	st := panel.Snapshot()
	if !bytes.Equal(st.RAM, fb.Bytes()) {
		t.Fatal("panel RAM differs from framebuffer")
	}
	for _, xy := range [][2]int{{10, 22}, {117, 38}, {0, 16}} {
		if !st.Pixel(xy[0], xy[1]) {
			t.Errorf("pixel %v should be lit on the panel", xy)
		}
	}
}

func TestSecondFlushOverwrites(t *testing.T) {
	panel, drv := newTestPanel(t)
	fb := NewFramebuffer(testWidth, testHeight)

	fb.Fill()
	if err := fb.Flush(drv); err != nil {
		t.Fatal(err)
	}
	v := panel.Version()

	fb.Clear()
	fb.DrawString(0, 0, "OK", true)
	if err := fb.Flush(drv); err != nil {
		t.Fatal(err)
	}
	if panel.Version() <= v {
		t.Error("version did not advance on data write")
	}
	if !bytes.Equal(panel.Snapshot().RAM, fb.Bytes()) {
		t.Error("second flush did not replace RAM")
	}
}

func TestWritePageFraming(t *testing.T) {
	var rec recordingBus
	drv := NewSSD1306(&rec, testWidth)
	data := bytes.Repeat([]byte{0xAA}, testWidth)
	if err := drv.WritePage(3, data); err != nil {
		t.Fatalf("WritePage: %v", err)
	}

	want := [][]byte{
		{controlCommand, 0xB3},
		{controlCommand, 0x00},
		{controlCommand, 0x10},
		append([]byte{controlData}, data...),
	}
	if len(rec.txs) != len(want) {
		t.Fatalf("got %d transactions, want %d", len(rec.txs), len(want))
	}
	for i := range want {
		if !bytes.Equal(rec.txs[i], want[i]) {
			t.Errorf("tx %d = % x, want % x", i, rec.txs[i], want[i])
		}
	}
}

func TestBusErrorsPropagate(t *testing.T) {
	errBus := errors.New("nack")
	cases := []struct {
		name   string
		failAt int
		run    func(d *SSD1306) error
	}{
		{"init first command", 0, func(d *SSD1306) error { return d.Init() }},
		{"init mid sequence", 5, func(d *SSD1306) error { return d.Init() }},
		{"page select", 0, func(d *SSD1306) error { return d.WritePage(0, make([]byte, testWidth)) }},
		{"page data", 3, func(d *SSD1306) error { return d.WritePage(0, make([]byte, testWidth)) }},
		{"flush", 9, func(d *SSD1306) error { return NewFramebuffer(testWidth, testHeight).Flush(d) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bus := &recordingBus{failAt: tc.failAt, err: errBus}
			err := tc.run(NewSSD1306(bus, testWidth))
			if !errors.Is(err, errBus) {
				t.Fatalf("err = %v, want wrapped %v", err, errBus)
			}
			if len(bus.txs) != tc.failAt+1 {
				t.Errorf("bus saw %d transactions, want %d", len(bus.txs), tc.failAt+1)
			}
		})
	}
}

func TestPanelRejectsEmptyTx(t *testing.T) {
	p := NewPanel(testWidth, testHeight)
	if err := p.Tx(nil); !errors.Is(err, ErrEmptyTx) {
		t.Fatalf("err = %v, want ErrEmptyTx", err)
	}
	if p.Transactions() != 0 {
		t.Error("empty transaction should not be counted")
	}
}

func TestPanelMultiByteCommandInOneTx(t *testing.T) {
	p := NewPanel(testWidth, testHeight)
	cmds := []byte{controlCommand, cmdContrast, 0x20, cmdInvertDisplay, cmdDisplayOn}
	if err := p.Tx(cmds); err != nil {
		t.Fatal(err)
	}
	st := p.Snapshot()
	if st.Contrast != 0x20 || !st.Inverted || !st.On {
		t.Errorf("state = %+v", st)
	}
}

func TestPanelHorizontalAddressingWindow(t *testing.T) {
	p := NewPanel(testWidth, testHeight)
	setup := []byte{
		controlCommand,
		cmdMemoryMode, addressingHorizontal,
		cmdColumnAddr, 10, 11,
		cmdPageAddr, 2, 3,
	}
	if err := p.Tx(setup); err != nil {
		t.Fatal(err)
	}
	if err := p.Tx([]byte{controlData, 1, 2, 3, 4, 5}); err != nil {
		t.Fatal(err)
	}
	st := p.Snapshot()
	idx := func(page, col int) byte { return st.RAM[page*testWidth+col] }
	// Wraps within the 2x2 window, fifth byte returns to (page 2, col 10).
	if idx(2, 10) != 5 || idx(2, 11) != 2 || idx(3, 10) != 3 || idx(3, 11) != 4 {
		t.Errorf("window contents: %d %d %d %d", idx(2, 10), idx(2, 11), idx(3, 10), idx(3, 11))
	}
}

type recordingBus struct {
	txs    [][]byte
	failAt int
	err    error
}

func (b *recordingBus) Tx(p []byte) error {
	b.txs = append(b.txs, append([]byte(nil), p...))
	if b.err != nil && len(b.txs)-1 == b.failAt {
		return b.err
	}
	return nil
}
