// Package renderer draws an emulated display panel into a window.
package renderer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Anudeepreddynarala/Fan-Anomaly-Detection/display"
	"github.com/Anudeepreddynarala/Fan-Anomaly-Detection/graphics"
	"github.com/Anudeepreddynarala/Fan-Anomaly-Detection/shader"
	"github.com/Anudeepreddynarala/Fan-Anomaly-Detection/translator"
)

var glInitOnce sync.Once

var quadVertices = []float32{
	-1.0, 1.0, -1.0, -1.0, 1.0, -1.0,
	-1.0, 1.0, 1.0, -1.0, 1.0, 1.0,
}

// PanelViewer mirrors a display.Panel on screen. All methods must be called
// from the thread that owns the GL context.
type PanelViewer struct {
	context graphics.Context
	panel   *display.Panel
	title   string
	logger  *slog.Logger

	program uint32
	quadVAO uint32
	quadVBO uint32
	texture uint32

	gddramLoc   int32
	panelLoc    int32
	viewportLoc int32
	stateLoc    int32
	contrastLoc int32

	state    display.PanelState
	uploaded bool
	frames   uint64
}

func NewPanelViewer(ctx graphics.Context, panel *display.Panel, title string, logger *slog.Logger) (*PanelViewer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	v := &PanelViewer{context: ctx, panel: panel, title: title, logger: logger}

	v.context.MakeCurrent()
	var initErr error
	glInitOnce.Do(func() {
		initErr = gl.Init()
	})
	if initErr != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", initErr)
	}
	v.logger.Debug("renderer: opengl ready", "version", gl.GoStr(gl.GetString(gl.VERSION)))

	fs, err := translator.TranslateFragment(shader.PanelFragmentShader())
	if err != nil {
		return nil, err
	}
	v.program, err = newProgram(shader.GenerateVertexShader(), fs.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to create panel program: %w", err)
	}
	loc := func(name string) int32 {
		return gl.GetUniformLocation(v.program, gl.Str(fs.Uniform(name)+"\x00"))
	}
	v.gddramLoc = loc(shader.UniformGDDRAM)
	v.panelLoc = loc(shader.UniformPanel)
	v.viewportLoc = loc(shader.UniformViewport)
	v.stateLoc = loc(shader.UniformState)
	v.contrastLoc = loc(shader.UniformContrast)

	gl.GenVertexArrays(1, &v.quadVAO)
	gl.GenBuffers(1, &v.quadVBO)
	gl.BindVertexArray(v.quadVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, v.quadVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(quadVertices)*4, gl.Ptr(quadVertices), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 2*4, gl.PtrOffset(0))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)

	gl.GenTextures(1, &v.texture)
	gl.BindTexture(gl.TEXTURE_2D, v.texture)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	return v, nil
}

// upload copies panel RAM into the texture when the panel changed since the
// last frame.
func (v *PanelViewer) upload() {
	if v.uploaded && v.panel.Version() == v.state.Version {
		return
	}
	prev := v.state
	v.state = v.panel.Snapshot()
	pages := int32(v.state.Height / 8)

	gl.BindTexture(gl.TEXTURE_2D, v.texture)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	if !v.uploaded || prev.Width != v.state.Width || prev.Height != v.state.Height {
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.R8UI, int32(v.state.Width), pages, 0, gl.RED_INTEGER, gl.UNSIGNED_BYTE, gl.Ptr(v.state.RAM))
	} else {
		gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(v.state.Width), pages, gl.RED_INTEGER, gl.UNSIGNED_BYTE, gl.Ptr(v.state.RAM))
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if !v.uploaded || prev.On != v.state.On {
		v.context.SetTitle(windowTitle(v.title, v.state))
	}
	v.uploaded = true
}

// RenderFrame draws the current panel contents into the window's framebuffer.
func (v *PanelViewer) RenderFrame() {
	v.upload()

	fbWidth, fbHeight := v.context.GetFramebufferSize()
	vp := graphics.Fit(fbWidth, fbHeight, v.state.Width, v.state.Height)
	u := uniformsFor(v.state)

	gl.Viewport(0, 0, int32(fbWidth), int32(fbHeight))
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)

	gl.UseProgram(v.program)
	gl.Uniform2i(v.panelLoc, int32(v.state.Width), int32(v.state.Height))
	gl.Uniform4f(v.viewportLoc, float32(vp.X), float32(vp.Y), float32(vp.Width), float32(vp.Height))
	gl.Uniform3i(v.stateLoc, u.on, u.inverted, u.entireOn)
	gl.Uniform1f(v.contrastLoc, u.contrast)
	gl.Uniform1i(v.gddramLoc, 0)

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, v.texture)
	gl.BindVertexArray(v.quadVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 6)
	gl.BindVertexArray(0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	v.frames++
}

// Run renders until the window is closed or ctx is cancelled.
func (v *PanelViewer) Run(ctx context.Context) {
	start := v.context.Time()
	for !v.context.ShouldClose() && ctx.Err() == nil {
		v.RenderFrame()
		v.context.EndFrame()
	}
	if elapsed := v.context.Time() - start; elapsed > 0 {
		v.logger.Debug("renderer: viewer stopped", "frames", v.frames, "fps", float64(v.frames)/elapsed)
	}
}

func (v *PanelViewer) Shutdown() {
	gl.DeleteTextures(1, &v.texture)
	gl.DeleteProgram(v.program)
	gl.DeleteBuffers(1, &v.quadVBO)
	gl.DeleteVertexArrays(1, &v.quadVAO)
	v.context.Shutdown()
}

func newProgram(vertexShaderSource, fragmentShaderSource string) (uint32, error) {
	vertexShader, err := compileShader(vertexShaderSource, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fragmentShader, err := compileShader(fragmentShaderSource, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vertexShader)
		return 0, err
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)
	gl.DeleteShader(vertexShader)
	gl.DeleteShader(fragmentShader)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("failed to link program: %v", log)
	}
	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		logText := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(logText))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("failed to compile shader: %v", logText)
	}
	return shader, nil
}
