package glgpu

import (
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/scenekit/internal/gpu"
)

// compileProgram compiles vertex and fragment shaders and links them into
// a program. Failures are reported as *gpu.ShaderError.
func compileProgram(name, vertexSrc, fragmentSrc string) (uint32, error) {
	vertShader, err := compileShader(name, vertexSrc, gl.VERTEX_SHADER, "vertex")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vertShader)

	fragShader, err := compileShader(name, fragmentSrc, gl.FRAGMENT_SHADER, "fragment")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fragShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertShader)
	gl.AttachShader(program, fragShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		log := infoLog(logLen, func(buf *uint8) {
			gl.GetProgramInfoLog(program, logLen, nil, buf)
		})
		gl.DeleteProgram(program)
		return 0, &gpu.ShaderError{Pipeline: name, Stage: "link", Log: log}
	}

	return program, nil
}

func compileShader(name, source string, shaderType uint32, stage string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := infoLog(logLen, func(buf *uint8) {
			gl.GetShaderInfoLog(shader, logLen, nil, buf)
		})
		gl.DeleteShader(shader)
		return 0, &gpu.ShaderError{Pipeline: name, Stage: stage, Log: log}
	}

	return shader, nil
}

func infoLog(length int32, read func(*uint8)) string {
	if length <= 0 {
		return "(no log)"
	}
	buf := make([]byte, length)
	read(&buf[0])
	return strings.TrimRight(string(buf), "\x00\n")
}
