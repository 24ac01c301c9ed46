package fluid

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/stablefluid/field"
)

func near(a, b, eps float32) bool {
	return float32(math.Abs(float64(a-b))) <= eps
}

func randomScalar(w, h int, seed int64) *field.Scalar {
	rng := rand.New(rand.NewSource(seed))
	s := field.NewScalar(w, h)
	for i := range s.Data {
		s.Data[i] = rng.Float32()*2 - 1
	}
	return s
}

func TestAdvectImpulseScenario(t *testing.T) {
	vel := field.NewVector(4, 4)
	vel.Fill(field.Vec2{X: 1})
	src := field.NewScalar(4, 4)
	src.Set(1, 1, 1)
	out := field.NewScalar(4, 4)

	Advect(out, src, vel, AdvectParams{DT: 0.1})

	if got := out.At(1, 1); !near(got, 0.9, 1e-6) {
		t.Errorf("out(1,1) = %v, want 0.9", got)
	}
	if got := out.At(2, 1); !near(got, 0.1, 1e-6) {
		t.Errorf("out(2,1) = %v, want 0.1", got)
	}

	// The impulse's center of mass moved by dt*vx.
	var mass, mx float32
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			v := out.At(x, y)
			mass += v
			mx += v * float32(x)
		}
	}
	if !near(mass, 1, 1e-6) {
		t.Errorf("mass = %v, want 1", mass)
	}
	if !near(mx/mass, 1.1, 1e-5) {
		t.Errorf("centroid x = %v, want 1.1", mx/mass)
	}
}

func TestAdvectZeroVelocityIsIdentity(t *testing.T) {
	src := randomScalar(8, 5, 1)
	out := field.NewScalar(8, 5)
	Advect(out, src, field.NewVector(8, 5), AdvectParams{DT: 1})
	for i := range src.Data {
		if out.Data[i] != src.Data[i] {
			t.Fatalf("cell %d changed: %v -> %v", i, src.Data[i], out.Data[i])
		}
	}
}

func TestSelfAdvectionUniformFlow(t *testing.T) {
	vel := field.NewVector(6, 6)
	vel.Fill(field.Vec2{X: 2, Y: -1})
	out := field.NewVector(6, 6)
	AdvectVector(out, vel, vel, AdvectParams{DT: 0.25})
	for i := range out.X.Data {
		if out.X.Data[i] != 2 || out.Y.Data[i] != -1 {
			t.Fatalf("uniform flow changed at %d: (%v,%v)", i, out.X.Data[i], out.Y.Data[i])
		}
	}
}

func TestEnforceBoundaryAllEdges(t *testing.T) {
	for _, c := range []float32{VelocityBoundary, PressureBoundary} {
		in := randomScalar(6, 5, 7)
		out := field.NewScalar(6, 5)
		EnforceBoundary(out, in, c)

		w, h := in.W, in.H
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				border := x == 0 || y == 0 || x == w-1 || y == h-1
				got := out.At(x, y)
				if !border {
					if got != in.At(x, y) {
						t.Errorf("c=%v interior (%d,%d) = %v, want %v", c, x, y, got, in.At(x, y))
					}
					continue
				}
				nx := min(max(x, 1), w-2)
				ny := min(max(y, 1), h-2)
				if want := c * in.At(nx, ny); got != want {
					t.Errorf("c=%v border (%d,%d) = %v, want %v", c, x, y, got, want)
				}
			}
		}

		// Corners use the diagonal neighbour.
		corners := [][4]int{{0, 0, 1, 1}, {w - 1, 0, w - 2, 1}, {0, h - 1, 1, h - 2}, {w - 1, h - 1, w - 2, h - 2}}
		for _, k := range corners {
			if got, want := out.At(k[0], k[1]), c*in.At(k[2], k[3]); got != want {
				t.Errorf("c=%v corner (%d,%d) = %v, want %v", c, k[0], k[1], got, want)
			}
		}
	}
}

func TestDivergenceAndCurlOfLinearFields(t *testing.T) {
	vel := field.NewVector(7, 7)
	// v = (2x, 3y) has divergence 5 and no curl; v = (y, -x) has curl 2.
	for y := 0; y < 7; y++ {
		for x := 0; x < 7; x++ {
			vel.Set(x, y, field.Vec2{X: 2 * float32(x), Y: 3 * float32(y)})
		}
	}
	div := field.NewScalar(7, 7)
	curl := field.NewScalar(7, 7)
	Divergence(div, vel)
	Curl(curl, vel)
	for y := 1; y < 6; y++ {
		for x := 1; x < 6; x++ {
			if got := div.At(x, y); got != 5 {
				t.Errorf("div(%d,%d) = %v, want 5", x, y, got)
			}
			if got := curl.At(x, y); got != 0 {
				t.Errorf("curl(%d,%d) = %v, want 0", x, y, got)
			}
		}
	}

	for y := 0; y < 7; y++ {
		for x := 0; x < 7; x++ {
			vel.Set(x, y, field.Vec2{X: float32(y), Y: -float32(x)})
		}
	}
	Curl(curl, vel)
	if got := curl.At(3, 3); got != 2 {
		t.Errorf("curl of (y,-x) = %v, want 2", got)
	}
}

func TestSubtractGradientOfLinearPressure(t *testing.T) {
	p := field.NewScalar(5, 5)
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			p.Set(x, y, 3*float32(x)-float32(y))
		}
	}
	vel := field.NewVector(5, 5)
	vel.Fill(field.Vec2{X: 1, Y: 1})
	out := field.NewVector(5, 5)
	SubtractGradient(out, vel, p)

	got := out.At(2, 2)
	if got.X != -2 || got.Y != 2 {
		t.Errorf("out(2,2) = %+v, want {-2 2}", got)
	}
}

func TestJacobiResidualNonIncreasing(t *testing.T) {
	const w, h = 16, 12
	b := randomScalar(w, h, 3)
	// Remove the mean so the Neumann system is consistent.
	b.AddScaled(-float32(b.Sum()/float64(w*h)), onesLike(b))

	for _, tc := range []struct {
		name string
		p    JacobiParams
	}{
		{"pressure", PressureParams()},
		{"diffusion", DiffusionParams(0.5)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			x := field.NewScalar(w, h)
			next := field.NewScalar(w, h)
			res := field.NewScalar(w, h)

			prev := JacobiResidual(res, x, b, tc.p)
			for it := 0; it < 40; it++ {
				JacobiStep(next, x, b, tc.p)
				x, next = next, x
				r := JacobiResidual(res, x, b, tc.p)
				if r > prev*(1+1e-5) {
					t.Fatalf("iteration %d: residual grew %v -> %v", it, prev, r)
				}
				prev = r
			}
		})
	}
}

func onesLike(s *field.Scalar) *field.Scalar {
	o := field.NewScalar(s.W, s.H)
	o.Fill(1)
	return o
}

func TestDiffusionSmoothsAndConserves(t *testing.T) {
	x := field.NewScalar(9, 9)
	x.Set(4, 4, 1)
	out := field.NewScalar(9, 9)
	jp := DiffusionParams(1)
	for range 10 {
		JacobiStep(out, x, x, jp)
		x, out = out, x
	}
	if x.At(4, 4) >= 1 || x.At(4, 4) <= x.At(3, 4) {
		t.Errorf("peak not smoothed: center %v, neighbour %v", x.At(4, 4), x.At(3, 4))
	}
	// Clamped neighbours make the self-referential sweep mass-preserving.
	if s := x.Sum(); math.Abs(s-1) > 1e-5 {
		t.Errorf("sum after diffusion = %v, want 1", s)
	}
}

func TestApplyForcesGaussianSplat(t *testing.T) {
	vel := field.NewVector(9, 9)
	out := field.NewVector(9, 9)
	ev := ForceEvent{Position: field.Vec2{X: 4, Y: 4}, Velocity: field.Vec2{X: 10}, Active: true}
	ApplyForces(out, vel, field.NewScalar(9, 9), ForceParams{Event: ev, Radius: 2, DT: 0.1})

	if got := out.At(4, 4); got.X != 10 || got.Y != 0 {
		t.Errorf("center = %+v, want {10 0}", got)
	}
	want := float32(10 * math.Exp(-1)) // distance 2, radius 2
	if got := out.At(6, 4).X; !near(got, want, 1e-5) {
		t.Errorf("at radius = %v, want %v", got, want)
	}

	// Inactive events still copy the input through.
	vel.Fill(field.Vec2{X: 1, Y: 2})
	ApplyForces(out, vel, field.NewScalar(9, 9), ForceParams{Radius: 2, DT: 0.1})
	if got := out.At(0, 0); got.X != 1 || got.Y != 2 {
		t.Errorf("inactive pass = %+v, want {1 2}", got)
	}
}

func TestVorticityConfinementReinforcesRotation(t *testing.T) {
	const n = 21
	c := float32(n-1) / 2
	for _, spin := range []float32{1, -1} {
		vel := field.NewVector(n, n)
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				dx, dy := float32(x)-c, float32(y)-c
				g := float32(math.Exp(float64(-(dx*dx + dy*dy) / 16)))
				vel.Set(x, y, field.Vec2{X: -spin * dy * g, Y: spin * dx * g})
			}
		}
		curl := field.NewScalar(n, n)
		Curl(curl, vel)
		out := field.NewVector(n, n)
		ApplyForces(out, vel, curl, ForceParams{Radius: 1, Confinement: 1, DT: 0.1})

		// Net work done by the confinement force must be positive.
		var work float64
		for i := range vel.X.Data {
			fx := out.X.Data[i] - vel.X.Data[i]
			fy := out.Y.Data[i] - vel.Y.Data[i]
			work += float64(fx*vel.X.Data[i] + fy*vel.Y.Data[i])
		}
		if work <= 0 {
			t.Errorf("spin %v: confinement work = %v, want > 0", spin, work)
		}
	}
}

func TestInjectDye(t *testing.T) {
	den := field.NewScalar(5, 5)
	den.Fill(0.5)
	out := field.NewScalar(5, 5)

	InjectDye(out, den, DyeParams{Radius: 1, Amount: 1})
	if out.At(2, 2) != 0.5 {
		t.Errorf("inactive injection changed density: %v", out.At(2, 2))
	}

	ev := ForceEvent{Position: field.Vec2{X: 2, Y: 2}, Active: true}
	InjectDye(out, den, DyeParams{Event: ev, Radius: 1, Amount: 2})
	if got := out.At(2, 2); got != 2.5 {
		t.Errorf("center = %v, want 2.5", got)
	}
	if got := out.At(3, 2); !near(got, 0.5+2*float32(math.Exp(-1)), 1e-5) {
		t.Errorf("neighbour = %v", got)
	}
}
