package fixedpoint

import "testing"

func TestUnknownNeverClamped(t *testing.T) {
	if got := Unknown.Clamp(0, One); got != Unknown {
		t.Errorf("Clamp(Unknown) = %v, want Unknown", got)
	}
}

func TestLerpBounds(t *testing.T) {
	cases := []struct {
		a, b, t Q16
		want    Q16
	}{
		{0, One, 0, 0},
		{0, One, One, One},
		{0, One, One / 2, One / 2},
		{FromInt(-1), FromInt(1), One / 2, 0},
	}
	for _, c := range cases {
		if got := Lerp(c.a, c.b, c.t); got != c.want {
			t.Errorf("Lerp(%v,%v,%v) = %v, want %v", c.a, c.b, c.t, got, c.want)
		}
	}
}

func TestLerpUnknownPropagates(t *testing.T) {
	if got := Lerp(Unknown, One, One/2); got != Unknown {
		t.Errorf("Lerp with Unknown input = %v, want Unknown", got)
	}
}

func TestMulDivRoundTrip(t *testing.T) {
	a := FromInt(7)
	b := FromInt(3)
	q := a.Div(b)
	back := q.Mul(b)
	diff := back.Sub(a).Abs()
	if diff > FromFloat(0.001) {
		t.Errorf("round trip error too large: %v", diff.Float())
	}
}

func TestDivByZero(t *testing.T) {
	if got := One.Div(0); got != Unknown {
		t.Errorf("Div by zero = %v, want Unknown", got)
	}
}

func TestSqrt(t *testing.T) {
	four := FromInt(4)
	got := four.Sqrt()
	want := FromInt(2)
	if got != want {
		t.Errorf("Sqrt(4) = %v, want %v", got.Float(), want.Float())
	}
}

func TestSqrtNegative(t *testing.T) {
	if got := FromInt(-1).Sqrt(); got != Unknown {
		t.Errorf("Sqrt(-1) = %v, want Unknown", got)
	}
}

func TestFloorDivNegative(t *testing.T) {
	cellSize := FromInt(4)
	cases := []struct {
		v    Q16
		want int32
	}{
		{FromInt(0), 0},
		{FromInt(3), 0},
		{FromInt(4), 1},
		{FromInt(-1), -1},
		{FromInt(-4), -1},
		{FromInt(-5), -2},
	}
	for _, c := range cases {
		if got := c.v.FloorDiv(cellSize); got != c.want {
			t.Errorf("FloorDiv(%v,4) = %d, want %d", c.v.Float(), got, c.want)
		}
	}
}

func TestRoundToGrid(t *testing.T) {
	step := FromInt(10)
	if RoundToGrid(FromInt(4), step) {
		t.Error("rem=4 of step=10 should round down")
	}
	if !RoundToGrid(FromInt(5), step) {
		t.Error("rem=5 of step=10 should round up (banker's midpoint rule: >=)")
	}
	if !RoundToGrid(FromInt(6), step) {
		t.Error("rem=6 of step=10 should round up")
	}
}

func TestMulWideMagnitude(t *testing.T) {
	// A 3-4-5 right triangle scaled up past Q16.16's safe squaring range:
	// 300^2 + 400^2 = 500^2, and 300 alone already overflows Q16.Mul.
	x := FromInt(300)
	y := FromInt(400)
	sumSq := x.MulWide(x).Add(y.MulWide(y))
	mag := sumSq.Sqrt().Q16()
	want := FromInt(500)
	if diff := mag.Sub(want).Abs(); diff > FromFloat(0.01) {
		t.Errorf("magnitude = %v, want %v", mag.Float(), want.Float())
	}
}

func TestQ48SqrtNegative(t *testing.T) {
	if got := Q48(-1).Sqrt(); got.Q16() != Unknown {
		t.Errorf("Q48.Sqrt(-1) = %v, want Unknown", got)
	}
}

func TestQ48Saturation(t *testing.T) {
	big := Q48(int64(1) << 40)
	if got := big.Q16(); got == Unknown {
		t.Error("saturated Q16 should not equal the Unknown sentinel")
	}
}
