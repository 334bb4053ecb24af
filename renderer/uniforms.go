package renderer

import (
	"fmt"

	"github.com/Anudeepreddynarala/Fan-Anomaly-Detection/display"
)

type panelUniforms struct {
	on, inverted, entireOn int32
	contrast               float32
}

func uniformsFor(s display.PanelState) panelUniforms {
	return panelUniforms{
		on:       boolInt(s.On),
		inverted: boolInt(s.Inverted),
		entireOn: boolInt(s.EntireOn),
		contrast: float32(s.Contrast) / 255,
	}
}

func windowTitle(base string, s display.PanelState) string {
	t := fmt.Sprintf("%s (%dx%d)", base, s.Width, s.Height)
	if !s.On {
		t += " [off]"
	}
	return t
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
