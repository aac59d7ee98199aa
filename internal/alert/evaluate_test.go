package alert

import (
	"math"
	"math/rand"
	"testing"

	"crypto-alert-service/internal/types"
)

func riseAlert(base, threshold float64) types.Alert {
	return types.Alert{ID: 1, Direction: types.DirectionRise, BasePrice: base, ThresholdPercent: threshold}
}

func fallAlert(base, threshold float64) types.Alert {
	return types.Alert{ID: 2, Direction: types.DirectionFall, BasePrice: base, ThresholdPercent: threshold}
}

func TestEvaluate(t *testing.T) {
	cases := []struct {
		name       string
		alert      types.Alert
		current    float64
		wantFired  bool
		wantChange float64
	}{
		{
			name:       "rise fires past threshold",
			alert:      riseAlert(50000, 5),
			current:    52500,
			wantFired:  true,
			wantChange: 5,
		},
		{
			name:       "rise does not fire just below threshold",
			alert:      riseAlert(50000, 5),
			current:    52499.99,
			wantFired:  false,
			wantChange: 4.99998,
		},
		{
			name:       "fall fires past threshold",
			alert:      fallAlert(3000, -8),
			current:    2700,
			wantFired:  true,
			wantChange: -10,
		},
		{
			name:       "fall does not fire on small dip",
			alert:      fallAlert(3000, -8),
			current:    2940,
			wantFired:  false,
			wantChange: -2,
		},
		{
			name:       "rise boundary is inclusive",
			alert:      riseAlert(100, 10),
			current:    110,
			wantFired:  true,
			wantChange: 10,
		},
		{
			name:       "fall boundary is inclusive",
			alert:      fallAlert(100, -10),
			current:    90,
			wantFired:  true,
			wantChange: -10,
		},
		{
			name:       "rise ignores movement in wrong direction",
			alert:      riseAlert(100, 1),
			current:    50,
			wantFired:  false,
			wantChange: -50,
		},
		{
			name:       "fall ignores movement in wrong direction",
			alert:      fallAlert(100, -1),
			current:    200,
			wantFired:  false,
			wantChange: 100,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Evaluate(tc.alert, tc.current)
			if err != nil {
				t.Fatalf("Evaluate returned error: %v", err)
			}
			if got.Fired != tc.wantFired {
				t.Errorf("Fired = %v, want %v", got.Fired, tc.wantFired)
			}
			if math.Abs(got.ChangePercent-tc.wantChange) > 1e-4 {
				t.Errorf("ChangePercent = %v, want %v", got.ChangePercent, tc.wantChange)
			}
		})
	}
}

func TestEvaluateRejectsCorruptInput(t *testing.T) {
	cases := []struct {
		name    string
		alert   types.Alert
		current float64
	}{
		{"zero current price", riseAlert(100, 5), 0},
		{"negative current price", riseAlert(100, 5), -1},
		{"NaN current price", riseAlert(100, 5), math.NaN()},
		{"infinite current price", riseAlert(100, 5), math.Inf(1)},
		{"zero base price", riseAlert(0, 5), 100},
		{"rise with negative threshold", riseAlert(100, -5), 100},
		{"fall with positive threshold", fallAlert(100, 5), 100},
		{"unknown direction", types.Alert{ID: 3, Direction: "sideways", BasePrice: 100, ThresholdPercent: 5}, 100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Evaluate(tc.alert, tc.current)
			if err == nil {
				t.Fatal("expected an error, got none")
			}
			if KindOf(err) != KindInvariant {
				t.Errorf("KindOf(err) = %v, want KindInvariant", KindOf(err))
			}
		})
	}
}

func TestEvaluateFiresIffThresholdReached(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 1000; i++ {
		base := 0.0001 + rng.Float64()*100000
		current := 0.0001 + rng.Float64()*100000
		magnitude := 0.1 + rng.Float64()*49.9

		a := riseAlert(base, magnitude)
		if rng.Intn(2) == 0 {
			a = fallAlert(base, -magnitude)
		}

		got, err := Evaluate(a, current)
		if err != nil {
			t.Fatalf("Evaluate(%+v, %v) returned error: %v", a, current, err)
		}

		change := (current - base) / base * 100
		want := change >= a.ThresholdPercent
		if a.Direction == types.DirectionFall {
			want = change <= a.ThresholdPercent
		}
		if got.Fired != want {
			t.Fatalf("base=%v current=%v threshold=%v %s: Fired = %v, want %v",
				base, current, a.ThresholdPercent, a.Direction, got.Fired, want)
		}
	}
}

func TestEvaluateSymmetry(t *testing.T) {
	// The same relative move must produce mirrored change percentages.
	base := 1234.56
	for _, magnitude := range []float64{0.1, 1, 5, 25, 50} {
		up, err := Evaluate(riseAlert(base, magnitude), base*(1+magnitude/100))
		if err != nil {
			t.Fatalf("rise evaluation failed: %v", err)
		}
		down, err := Evaluate(fallAlert(base, -magnitude), base*(1-magnitude/100))
		if err != nil {
			t.Fatalf("fall evaluation failed: %v", err)
		}
		if !up.Fired || !down.Fired {
			t.Errorf("magnitude %v: up fired=%v down fired=%v, want both", magnitude, up.Fired, down.Fired)
		}
		if math.Abs(up.ChangePercent+down.ChangePercent) > 1e-9 {
			t.Errorf("magnitude %v: changes %v and %v are not mirrored", magnitude, up.ChangePercent, down.ChangePercent)
		}
	}
}
