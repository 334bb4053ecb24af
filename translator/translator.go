// Package translator turns WebGL2 (GLSL ES 3.00) fragment shaders into
// desktop GLSL 3.30 so one shader source serves every platform.
package translator

import (
	"context"
	"fmt"
	"sync"

	gst "github.com/richinsley/goshadertranslator"
)

var (
	once       sync.Once
	translator *gst.ShaderTranslator
	initErr    error
)

func get() (*gst.ShaderTranslator, error) {
	once.Do(func() {
		translator, initErr = gst.NewShaderTranslator(context.Background())
	})
	return translator, initErr
}

// Fragment is a translated fragment shader.
type Fragment struct {
	Code string
	// Uniforms maps each source uniform name to its name in Code.
	Uniforms map[string]string
}

// Uniform returns the translated name of a source uniform, or the source name
// itself if the translator did not report it.
func (f *Fragment) Uniform(name string) string {
	if mapped, ok := f.Uniforms[name]; ok {
		return mapped
	}
	return name
}

// TranslateFragment translates a WebGL2 fragment shader to GLSL 3.30.
func TranslateFragment(src string) (*Fragment, error) {
	t, err := get()
	if err != nil {
		return nil, fmt.Errorf("create shader translator: %w", err)
	}
	out, err := t.TranslateShader(src, "fragment", gst.ShaderSpecWebGL2, gst.OutputFormatGLSL330)
	if err != nil {
		return nil, fmt.Errorf("translate fragment shader: %w", err)
	}
	f := &Fragment{Code: out.Code, Uniforms: make(map[string]string, len(out.Variables))}
	for name, v := range out.Variables {
		f.Uniforms[name] = v.MappedName
	}
	return f, nil
}
