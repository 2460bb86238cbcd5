package scene

import (
	"fmt"

	"github.com/Faultbox/scenekit/internal/gpu"
)

// passState tracks where the current draw is in its pass. Every public
// draw entry point runs Idle -> ... -> Idle before returning.
type passState int

const (
	stateIdle passState = iota
	statePassBegun
	statePipelineBound
	stateResourcesBound
	stateDrawn
)

func (s passState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case statePassBegun:
		return "pass begun"
	case statePipelineBound:
		return "pipeline bound"
	case stateResourcesBound:
		return "resources bound"
	case stateDrawn:
		return "drawn"
	}
	return fmt.Sprintf("passState(%d)", int(s))
}

// pass guards the device call order. Out-of-order calls are programming
// errors and panic.
type pass struct {
	dev   gpu.Device
	state passState
}

func (p *pass) require(op string, atLeast passState) {
	if p.state < atLeast {
		panic(fmt.Sprintf("scene: %s while %s", op, p.state))
	}
}

func (p *pass) begin(target gpu.RenderTarget, action gpu.PassAction) {
	if p.state != stateIdle {
		panic(fmt.Sprintf("scene: begin pass while %s", p.state))
	}
	if target != nil {
		p.dev.BeginPass(target, action)
	} else {
		p.dev.BeginDefaultPass(action)
	}
	p.state = statePassBegun
}

func (p *pass) viewport(x, y, w, h int32) {
	p.require("apply viewport", statePassBegun)
	p.dev.ApplyViewport(x, y, w, h)
}

func (p *pass) pipeline(pl gpu.Pipeline) {
	p.require("apply pipeline", statePassBegun)
	p.dev.ApplyPipeline(pl)
	p.state = statePipelineBound
}

func (p *pass) bindings(b gpu.Bindings) {
	p.require("apply bindings", statePipelineBound)
	p.dev.ApplyBindings(b)
	p.state = stateResourcesBound
}

func (p *pass) uniforms(data []byte) {
	p.require("apply uniforms", statePipelineBound)
	p.dev.ApplyUniforms(data)
}

func (p *pass) draw(base, count, instances int) {
	p.require("draw", stateResourcesBound)
	p.dev.Draw(base, count, instances)
	p.state = stateDrawn
}

func (p *pass) end() {
	p.require("end pass", statePassBegun)
	p.dev.EndPass()
	p.state = stateIdle
}
