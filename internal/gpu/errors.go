package gpu

import "fmt"

// ShaderError reports a shader compile or program link failure.
type ShaderError struct {
	Pipeline string
	// Stage is "vertex", "fragment" or "link".
	Stage string
	Log   string
}

func (e *ShaderError) Error() string {
	return fmt.Sprintf("pipeline %q: %s shader: %s", e.Pipeline, e.Stage, e.Log)
}
