package shader

// Uniform names declared by PanelFragmentShader.
const (
	UniformGDDRAM   = "u_gddram"
	UniformPanel    = "u_panel"
	UniformViewport = "u_viewport"
	UniformState    = "u_state"
	UniformContrast = "u_contrast"
)

const vertexShaderSourceGL = `#version 330 core
layout (location = 0) in vec2 in_vert;
void main() {
    gl_Position = vec4(in_vert, 0.0, 1.0);
}
`

// The fragment shader is written against WebGL2 and translated at startup.
// It reads controller RAM directly: one R8UI texel per column byte, one
// texture row per page, bit (y % 8) of the byte is pixel row y.
const panelFragmentShaderSource = `#version 300 es
precision highp float;
precision highp int;

uniform highp usampler2D u_gddram;
uniform ivec2 u_panel;     // panel size in pixels
uniform vec4  u_viewport;  // x, y, width, height in framebuffer pixels
uniform ivec3 u_state;     // display on, inverted, entire display on
uniform float u_contrast;  // 0..1

out vec4 fragColor;

const vec3 LIT   = vec3(0.55, 0.85, 1.0);
const vec3 UNLIT = vec3(0.02, 0.03, 0.05);

void main() {
    vec2 local = (gl_FragCoord.xy - u_viewport.xy) / u_viewport.zw;
    if (any(lessThan(local, vec2(0.0))) || any(greaterThanEqual(local, vec2(1.0)))) {
        fragColor = vec4(0.0, 0.0, 0.0, 1.0);
        return;
    }
    // Row 0 of the panel is at the top of the window.
    ivec2 px = ivec2(vec2(local.x, 1.0 - local.y) * vec2(u_panel));
    px = clamp(px, ivec2(0), u_panel - 1);

    uint column = texelFetch(u_gddram, ivec2(px.x, px.y / 8), 0).r;
    bool lit = ((column >> uint(px.y % 8)) & 1u) == 1u;
    if (u_state.z != 0) {
        lit = true;
    }
    if (u_state.y != 0) {
        lit = !lit;
    }
    if (u_state.x == 0) {
        lit = false;
    }

    // Leave a thin gap between pixels so the grid reads like a real panel.
    vec2 cell = fract(vec2(local.x, 1.0 - local.y) * vec2(u_panel));
    float gap = step(0.08, cell.x) * step(0.08, cell.y);

    vec3 color = lit ? LIT * mix(0.35, 1.0, u_contrast) : UNLIT;
    fragColor = vec4(color * mix(0.6, 1.0, gap), 1.0);
}
`

// PanelFragmentShader returns the WebGL2 source of the panel shader.
func PanelFragmentShader() string {
	return panelFragmentShaderSource
}

func GenerateVertexShader() string {
	return vertexShaderSourceGL
}
