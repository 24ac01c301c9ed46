package field

import (
	"math"
	"testing"
)

func approx(a, b, eps float32) bool {
	return float32(math.Abs(float64(a-b))) <= eps
}

func TestSampleAtCellCentersIsExact(t *testing.T) {
	s := NewScalar(4, 3)
	for y := 0; y < s.H; y++ {
		for x := 0; x < s.W; x++ {
			s.Set(x, y, float32(y*10+x))
		}
	}

	for y := 0; y < s.H; y++ {
		for x := 0; x < s.W; x++ {
			got := s.Sample(float32(x), float32(y))
			want := float32(y*10 + x)
			if got != want {
				t.Errorf("Sample(%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestSampleBilinear(t *testing.T) {
	s := NewScalar(2, 2)
	s.Set(0, 0, 0)
	s.Set(1, 0, 1)
	s.Set(0, 1, 2)
	s.Set(1, 1, 3)

	tests := []struct {
		name string
		x, y float32
		want float32
	}{
		{"center", 0.5, 0.5, 1.5},
		{"mid top edge", 0.5, 0, 0.5},
		{"mid left edge", 0, 0.5, 1},
		{"quarter", 0.25, 0.75, 1.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Sample(tt.x, tt.y)
			if !approx(got, tt.want, 1e-6) {
				t.Errorf("Sample(%v,%v) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestSampleClampsOutsideGrid(t *testing.T) {
	s := NewScalar(3, 3)
	s.Set(0, 0, 5)
	s.Set(2, 2, 7)

	if got := s.Sample(-10, -10); got != 5 {
		t.Errorf("Sample far top-left = %v, want 5", got)
	}
	if got := s.Sample(100, 100); got != 7 {
		t.Errorf("Sample far bottom-right = %v, want 7", got)
	}
	// Half a cell outside blends the edge cell with itself.
	if got := s.Sample(-0.5, 0); got != 5 {
		t.Errorf("Sample(-0.5,0) = %v, want 5", got)
	}
}

func TestSampleNormalizedTexelCenters(t *testing.T) {
	s := NewScalar(4, 2)
	for i := range s.Data {
		s.Data[i] = float32(i)
	}
	// Center of cell (1,1) in normalized space is (1.5/4, 1.5/2).
	got := s.SampleNormalized(1.5/4, 1.5/2)
	if !approx(got, s.At(1, 1), 1e-6) {
		t.Errorf("SampleNormalized = %v, want %v", got, s.At(1, 1))
	}
	if got := s.SampleNormalized(0, 0); got != s.At(0, 0) {
		t.Errorf("SampleNormalized(0,0) = %v, want %v", got, s.At(0, 0))
	}
	if got := s.SampleNormalized(1, 1); got != s.At(3, 1) {
		t.Errorf("SampleNormalized(1,1) = %v, want %v", got, s.At(3, 1))
	}
}

func TestBulkOps(t *testing.T) {
	a := NewScalar(3, 2)
	b := NewScalar(3, 2)
	b.Fill(2)
	a.CopyFrom(b)
	if a.Sum() != 12 {
		t.Fatalf("Sum after CopyFrom = %v, want 12", a.Sum())
	}

	a.Scale(0.5)
	a.AddScaled(3, b)
	for i, v := range a.Data {
		if v != 7 {
			t.Fatalf("Data[%d] = %v, want 7", i, v)
		}
	}

	a.Set(1, 1, -20)
	if got := a.MaxAbs(); got != 20 {
		t.Errorf("MaxAbs = %v, want 20", got)
	}
	if got := a.AbsSum(); got != 55 {
		t.Errorf("AbsSum = %v, want 55", got)
	}

	a.Fill(0)
	if a.Norm() != 0 || a.MaxAbs() != 0 {
		t.Error("expected zero grid after Fill(0)")
	}
}

func TestCopyFromSizeMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on size mismatch")
		}
	}()
	NewScalar(3, 3).CopyFrom(NewScalar(4, 3))
}

func TestVectorKineticEnergy(t *testing.T) {
	v := NewVector(2, 2)
	v.Fill(Vec2{3, 4})
	// 4 cells * 0.5 * 25
	if got := v.KineticEnergy(); math.Abs(got-50) > 1e-4 {
		t.Errorf("KineticEnergy = %v, want 50", got)
	}

	speeds := v.Speeds(nil)
	for i, s := range speeds {
		if math.Abs(s-5) > 1e-6 {
			t.Errorf("speed[%d] = %v, want 5", i, s)
		}
	}
}

func TestVectorSample(t *testing.T) {
	v := NewVector(2, 1)
	v.Set(0, 0, Vec2{0, 2})
	v.Set(1, 0, Vec2{2, 0})
	got := v.Sample(0.5, 0)
	if !approx(got.X, 1, 1e-6) || !approx(got.Y, 1, 1e-6) {
		t.Errorf("Sample = %+v, want {1 1}", got)
	}
}
