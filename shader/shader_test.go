package shader

import (
	"strings"
	"testing"
)

func TestPanelShaderDeclaresUniforms(t *testing.T) {
	src := PanelFragmentShader()
	if !strings.HasPrefix(src, "#version 300 es") {
		t.Fatalf("panel shader must be WebGL2 source, starts %q", src[:20])
	}
	for _, name := range []string{UniformGDDRAM, UniformPanel, UniformViewport, UniformState, UniformContrast} {
		if !strings.Contains(src, " "+name+";") {
			t.Errorf("uniform %s not declared", name)
		}
	}
}

func TestVertexShaderFeedsAttributeZero(t *testing.T) {
	if !strings.Contains(GenerateVertexShader(), "layout (location = 0) in vec2 in_vert") {
		t.Error("vertex shader does not read the quad at location 0")
	}
}
