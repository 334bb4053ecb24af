package graphics

// Context defines the interface for an OpenGL context.
type Context interface {
	MakeCurrent()
	Shutdown()
	ShouldClose() bool
	EndFrame()
	GetFramebufferSize() (int, int)
	Time() float64
	SetTitle(title string)
}

// Viewport is a rectangle in framebuffer pixels, origin bottom-left.
type Viewport struct {
	X, Y, Width, Height int
}

// Fit places a srcW x srcH image inside a dstW x dstH framebuffer at the
// largest whole-number scale that fits, centred. Integer scaling keeps every
// source pixel a crisp square. If the framebuffer is smaller than the source
// the image is shrunk to fit, keeping its aspect ratio.
func Fit(dstW, dstH, srcW, srcH int) Viewport {
	if dstW <= 0 || dstH <= 0 || srcW <= 0 || srcH <= 0 {
		return Viewport{}
	}
	scale := min(dstW/srcW, dstH/srcH)
	var w, h int
	if scale >= 1 {
		w, h = srcW*scale, srcH*scale
	} else if dstW*srcH <= dstH*srcW {
		w, h = dstW, srcH*dstW/srcW
	} else {
		w, h = srcW*dstH/srcH, dstH
	}
	return Viewport{X: (dstW - w) / 2, Y: (dstH - h) / 2, Width: w, Height: h}
}
