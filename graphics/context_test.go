package graphics

import "testing"

func TestFit(t *testing.T) {
	tests := []struct {
		name       string
		dstW, dstH int
		srcW, srcH int
		want       Viewport
	}{
		{"exact multiple", 768, 384, 128, 64, Viewport{0, 0, 768, 384}},
		{"letterboxed", 800, 600, 128, 64, Viewport{16, 108, 768, 384}},
		{"pillarboxed", 1000, 384, 128, 64, Viewport{116, 0, 768, 384}},
		{"smaller than source", 64, 64, 128, 64, Viewport{0, 16, 64, 32}},
		{"narrow and short", 100, 20, 128, 64, Viewport{30, 0, 40, 20}},
		{"empty framebuffer", 0, 0, 128, 64, Viewport{}},
		{"empty source", 800, 600, 0, 64, Viewport{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fit(tt.dstW, tt.dstH, tt.srcW, tt.srcH); got != tt.want {
				t.Errorf("Fit(%d, %d, %d, %d) = %+v, want %+v", tt.dstW, tt.dstH, tt.srcW, tt.srcH, got, tt.want)
			}
		})
	}
}
