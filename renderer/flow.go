package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/stablefluid/camera"
	"github.com/pthm-cable/stablefluid/tracer"
)

// FlowRenderer draws tracer particles with fading trails.
type FlowRenderer struct {
	Width float32 // Line width in screen pixels at zoom 1
}

// NewFlowRenderer creates a tracer renderer.
func NewFlowRenderer(width float32) *FlowRenderer {
	return &FlowRenderer{Width: width}
}

// Draw renders the particles with additive blending.
func (r *FlowRenderer) Draw(cam *camera.Camera, particles []tracer.Particle) {
	rl.BeginBlendMode(rl.BlendAdditive)

	width := r.Width * float32(math.Sqrt(float64(cam.Zoom)))
	for i := range particles {
		p := &particles[i]

		// Need at least 1 trail point to draw
		if p.TrailLen < 1 {
			continue
		}

		lifeRatio := float32(p.Life) / float32(p.MaxLife)

		// Fade in over the first 20% of life, fade out near the end
		fadeIn := min(lifeRatio*5, 1)
		fadeIn *= fadeIn
		fadeOut := min((1-lifeRatio)*3+0.7, 1)

		baseAlpha := p.Opacity * fadeIn * fadeOut * 200
		if baseAlpha < 2 {
			continue
		}

		prevX, prevY := cam.GridToScreen(p.X, p.Y)
		for j := uint8(0); j < p.TrailLen; j++ {
			trailFade := 1 - float32(j)/float32(p.TrailLen)
			trailFade *= trailFade // Quadratic falloff

			alpha := baseAlpha * trailFade
			x, y := cam.GridToScreen(p.TrailX[j], p.TrailY[j])
			if alpha >= 1 {
				rl.DrawLineEx(
					rl.Vector2{X: prevX, Y: prevY},
					rl.Vector2{X: x, Y: y},
					width*trailFade,
					rl.Color{R: 200, G: 230, B: 255, A: uint8(alpha)},
				)
			}
			prevX, prevY = x, y
		}
	}

	rl.EndBlendMode()
}
