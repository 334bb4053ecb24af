package display

import "fmt"

// PageWriter accepts one page (8 pixel rows) of display RAM at a time.
type PageWriter interface {
	WritePage(page int, data []byte) error
}

// Framebuffer is a monochrome bitmap laid out the way SSD1306-class
// controllers address their RAM: each byte is a vertical strip of 8 pixels,
// and a page is one full-width row of those strips.
type Framebuffer struct {
	width  int
	height int
	buf    []byte
}

// NewFramebuffer allocates a cleared width x height bitmap. height must be a
// multiple of 8.
func NewFramebuffer(width, height int) *Framebuffer {
	if width <= 0 || height <= 0 || height%8 != 0 {
		panic(fmt.Sprintf("display: invalid framebuffer size %dx%d", width, height))
	}
	return &Framebuffer{
		width:  width,
		height: height,
		buf:    make([]byte, width*height/8),
	}
}

func (f *Framebuffer) Width() int  { return f.width }
func (f *Framebuffer) Height() int { return f.height }
func (f *Framebuffer) Pages() int  { return f.height / 8 }

// Bytes exposes the backing store. Callers must not retain it across draws.
func (f *Framebuffer) Bytes() []byte { return f.buf }

// Page returns the bytes of page p.
func (f *Framebuffer) Page(p int) []byte {
	return f.buf[p*f.width : (p+1)*f.width]
}

func (f *Framebuffer) Clear() {
	for i := range f.buf {
		f.buf[i] = 0x00
	}
}

func (f *Framebuffer) Fill() {
	for i := range f.buf {
		f.buf[i] = 0xFF
	}
}

// SetPixel sets or clears one pixel. Coordinates outside the bitmap are ignored.
func (f *Framebuffer) SetPixel(x, y int, on bool) {
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		return
	}
	idx := x + (y/8)*f.width
	bit := byte(1) << uint(y%8)
	if on {
		f.buf[idx] |= bit
	} else {
		f.buf[idx] &^= bit
	}
}

// Pixel reports whether (x, y) is lit; out of range reads as off.
func (f *Framebuffer) Pixel(x, y int) bool {
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		return false
	}
	return f.buf[x+(y/8)*f.width]&(1<<uint(y%8)) != 0
}

// DrawChar paints the set bits of c's glyph with its top-left corner at
// (x, y). Bits that are clear in the glyph are left untouched. Characters the
// font does not cover draw nothing.
func (f *Framebuffer) DrawChar(x, y int, c rune, on bool) {
	glyph, ok := Glyph(c)
	if !ok {
		return
	}
	for i, col := range glyph {
		for j := 0; j < GlyphHeight; j++ {
			if col&(1<<uint(j)) != 0 {
				f.SetPixel(x+i, y+j, on)
			}
		}
	}
}

// DrawString draws text left to right, one GlyphAdvance per character.
func (f *Framebuffer) DrawString(x, y int, text string, on bool) {
	for _, c := range text {
		f.DrawChar(x, y, c, on)
		x += GlyphAdvance
	}
}

// HLine draws the half-open span [x0, x1) on row y.
func (f *Framebuffer) HLine(x0, x1, y int, on bool) {
	for x := x0; x < x1; x++ {
		f.SetPixel(x, y, on)
	}
}

// VLine draws the half-open span [y0, y1) on column x.
func (f *Framebuffer) VLine(x, y0, y1 int, on bool) {
	for y := y0; y < y1; y++ {
		f.SetPixel(x, y, on)
	}
}

// Rect outlines the box with corners (x0, y0) and (x1, y1), both inclusive.
func (f *Framebuffer) Rect(x0, y0, x1, y1 int, on bool) {
	f.HLine(x0, x1+1, y0, on)
	f.HLine(x0, x1+1, y1, on)
	f.VLine(x0, y0, y1+1, on)
	f.VLine(x1, y0, y1+1, on)
}

// Flush sends every page to w in order. The first failing page aborts the
// flush; pages already sent stay on the panel.
func (f *Framebuffer) Flush(w PageWriter) error {
	for p := 0; p < f.Pages(); p++ {
		if err := w.WritePage(p, f.Page(p)); err != nil {
			return fmt.Errorf("flush page %d: %w", p, err)
		}
	}
	return nil
}
