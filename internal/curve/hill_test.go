package curve

import (
	"errors"
	"math"
	"testing"

	"github.com/AngelCh415/paidmedia-mmm/internal/models"
)

func TestPredictBookingsHalfSaturation(t *testing.T) {
	cases := []struct{ k, beta, n float64 }{
		{38, 5800, 1.8},
		{35, 5200, 2.0},
		{22, 3500, 1.5},
		{1, 1, 1},
	}
	for _, c := range cases {
		got := PredictBookings(c.beta, c.k, c.beta, c.n)
		if got != c.k/2 {
			t.Fatalf("predict(beta) K=%v beta=%v n=%v: got %v want %v", c.k, c.beta, c.n, got, c.k/2)
		}
	}
	if got := PredictBookings(5800, 38, 5800, 1.8); got != 19 {
		t.Fatalf("expected 19, got %v", got)
	}
}

func TestPredictBookingsMonotoneAndBounded(t *testing.T) {
	params := []struct{ k, beta, n float64 }{
		{38, 5800, 1.8}, {24, 4200, 1.5}, {45, 7000, 1.6}, {10, 100, 0.5}, {5, 50, 3},
	}
	for _, p := range params {
		if got := PredictBookings(0, p.k, p.beta, p.n); got != 0 {
			t.Fatalf("predict(0) = %v", got)
		}
		prev := 0.0
		for x := 0.0; x <= 100000; x += 250 {
			y := PredictBookings(x, p.k, p.beta, p.n)
			if y < prev {
				t.Fatalf("not monotone at x=%v: %v < %v", x, y, prev)
			}
			if y >= p.k {
				t.Fatalf("predict(%v) = %v reached K=%v", x, y, p.k)
			}
			prev = y
		}
		// far past saturation the ratio rounds to 1 but K is never reached
		for _, x := range []float64{1e6, 1e9, 1e12, 1e20, 1e100, 1e300, math.MaxFloat64} {
			y := PredictBookings(x, p.k, p.beta, p.n)
			if y >= p.k || y < prev {
				t.Fatalf("predict(%g) = %v, prev %v, K=%v", x, y, prev, p.k)
			}
			prev = y
		}
	}
}

func TestPredictBookingsNonPositiveSpend(t *testing.T) {
	for _, x := range []float64{0, -1, -5000} {
		if got := PredictBookings(x, 35, 5200, 2); got != 0 {
			t.Fatalf("predict(%v) = %v", x, got)
		}
		if got := MarginalCPA(x, 35, 5200, 2); got != 0 {
			t.Fatalf("marginal(%v) = %v", x, got)
		}
	}
}

func TestMarginalCPA(t *testing.T) {
	// n=1: dy/dx = K·β/(β+x)^2; en x=β -> K/(4β)
	got := MarginalCPA(100, 10, 100, 1)
	want := 4 * 100 / 10.0
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("got %v want %v", got, want)
	}
	// crece con el gasto pasada la saturacion
	if MarginalCPA(9000, 35, 5200, 2) <= MarginalCPA(6000, 35, 5200, 2) {
		t.Fatal("marginal CPA should increase past saturation")
	}
}

func TestMarginalCPAInfinitySentinel(t *testing.T) {
	got := MarginalCPA(1e300, 35, 5200, 2)
	if !math.IsInf(got, 1) {
		t.Fatalf("expected +Inf, got %v", got)
	}
}

func TestStCloudGoogleSearchScenario(t *testing.T) {
	p := Params{OfficeID: 2372, Channel: models.GoogleSearch, K: 35, Beta: 5200, N: 2.0, MaxSpend: 16000}
	cur := p.Predict(7199)
	opt := p.Predict(8200)
	if math.Abs(cur-23.0) > 0.01 {
		t.Fatalf("predict(7199) = %v", cur)
	}
	if math.Abs(opt-24.96) > 0.01 {
		t.Fatalf("predict(8200) = %v", opt)
	}
	if d := math.Round(opt - cur); d != 2 {
		t.Fatalf("projected delta = %v", d)
	}
}

func TestParamsValidate(t *testing.T) {
	ok := Params{K: 1, Beta: 1, N: 1}
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	bad := []Params{{K: 0, Beta: 1, N: 1}, {K: 1, Beta: -1, N: 1}, {K: 1, Beta: 1, N: math.NaN()}, {K: math.Inf(1), Beta: 1, N: 1}}
	for _, b := range bad {
		if err := b.Validate(); !errors.Is(err, ErrInvalidParams) {
			t.Fatalf("expected ErrInvalidParams for %+v, got %v", b, err)
		}
	}
}

func TestPoints(t *testing.T) {
	p := Params{K: 38, Beta: 5800, N: 1.8, MaxSpend: 18000}
	pts := p.Points(100)
	if len(pts) != 101 {
		t.Fatalf("len = %d", len(pts))
	}
	if pts[0].Spend != 0 || pts[0].Bookings != 0 {
		t.Fatalf("first point = %+v", pts[0])
	}
	if pts[100].Spend != 18000 {
		t.Fatalf("last spend = %v", pts[100].Spend)
	}
	if pts[50].MarginalCPA == nil || *pts[50].MarginalCPA <= 0 {
		t.Fatalf("mid marginal = %v", pts[50].MarginalCPA)
	}
	if got := len(p.Points(0)); got != DefaultSteps+1 {
		t.Fatalf("default steps len = %d", got)
	}
}

func TestPositionAt(t *testing.T) {
	p := Params{K: 35, Beta: 5200, N: 2}
	if !p.PositionAt(6000).PastHalfSat {
		t.Fatal("6000 > beta should be past half saturation")
	}
	if p.PositionAt(4000).PastHalfSat {
		t.Fatal("4000 < beta")
	}
}
