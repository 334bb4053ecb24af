package renderer

import (
	"testing"

	"github.com/Anudeepreddynarala/Fan-Anomaly-Detection/display"
)

func TestUniformsFollowPanelState(t *testing.T) {
	tests := []struct {
		name  string
		state display.PanelState
		want  panelUniforms
	}{
		{"powered off", display.PanelState{Contrast: 0x7F}, panelUniforms{contrast: 127.0 / 255}},
		{"on full contrast", display.PanelState{On: true, Contrast: 0xFF}, panelUniforms{on: 1, contrast: 1}},
		{"inverted", display.PanelState{On: true, Inverted: true}, panelUniforms{on: 1, inverted: 1}},
		{"entire on", display.PanelState{On: true, EntireOn: true, Contrast: 0xCF}, panelUniforms{on: 1, entireOn: 1, contrast: 207.0 / 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := uniformsFor(tt.state); got != tt.want {
				t.Errorf("uniformsFor = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestUniformsAfterDriverInit(t *testing.T) {
	p := display.NewPanel(128, 64)
	if err := display.NewSSD1306(p, 128).Init(); err != nil {
		t.Fatal(err)
	}
	u := uniformsFor(p.Snapshot())
	if u.on != 1 || u.inverted != 0 || u.entireOn != 0 {
		t.Errorf("uniforms after init = %+v", u)
	}
}

func TestWindowTitle(t *testing.T) {
	s := display.PanelState{Width: 128, Height: 64}
	if got := windowTitle("fanwatch", s); got != "fanwatch (128x64) [off]" {
		t.Errorf("off title = %q", got)
	}
	s.On = true
	if got := windowTitle("fanwatch", s); got != "fanwatch (128x64)" {
		t.Errorf("on title = %q", got)
	}
}
