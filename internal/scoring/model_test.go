package scoring

import (
	"math"
	"testing"
)

func TestOverallWeightedAverage(t *testing.T) {
	scores := SubScores{
		Speed:            9,
		Convenience:      8,
		Trust:            6,
		Price:            7,
		Status:           5,
		Predictability:   7,
		UIUX:             8,
		EaseOfUse:        8,
		LegalFriction:    9,
		EmotionalComfort: 7,
	}

	got := Overall(scores)
	if got != 7.40 {
		t.Errorf("Overall() = %v, want 7.40", got)
	}
}

func TestOverallDeterministic(t *testing.T) {
	scores := SubScores{
		Speed: 3.3, Convenience: 6.7, Trust: 5.1, Price: 8.0, Status: 2.4,
		Predictability: 7.7, UIUX: 4.2, EaseOfUse: 6.0, LegalFriction: 5.5, EmotionalComfort: 9.1,
	}

	first := Overall(scores)
	for i := 0; i < 10; i++ {
		if again := Overall(scores); again != first {
			t.Fatalf("Overall() not deterministic: %v then %v", first, again)
		}
	}
}

func TestOverallBounds(t *testing.T) {
	if got := Overall(SubScores{}); got != 0 {
		t.Errorf("Overall(zero scores) = %v, want 0", got)
	}

	all10 := SubScores{
		Speed: 10, Convenience: 10, Trust: 10, Price: 10, Status: 10,
		Predictability: 10, UIUX: 10, EaseOfUse: 10, LegalFriction: 10, EmotionalComfort: 10,
	}
	if got := Overall(all10); got != 10 {
		t.Errorf("Overall(all 10s) = %v, want 10", got)
	}
}

func TestOverallClampsOutOfRangeInput(t *testing.T) {
	// out-of-range values must be clamped before weighting
	scores := SubScores{
		Speed: 25, Convenience: -3, Trust: 10, Price: 10, Status: 10,
		Predictability: 10, UIUX: 10, EaseOfUse: 10, LegalFriction: 10, EmotionalComfort: 10,
	}
	clamped := SubScores{
		Speed: 10, Convenience: 0, Trust: 10, Price: 10, Status: 10,
		Predictability: 10, UIUX: 10, EaseOfUse: 10, LegalFriction: 10, EmotionalComfort: 10,
	}

	if got, want := Overall(scores), Overall(clamped); got != want {
		t.Errorf("Overall() with out-of-range input = %v, want %v", got, want)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{-1, 0},
		{0, 0},
		{5.5, 5.5},
		{10, 10},
		{11.2, 10},
	}

	for _, tt := range tests {
		if got := Clamp(tt.in); got != tt.want {
			t.Errorf("Clamp(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestViableBoundary(t *testing.T) {
	tests := []struct {
		overall float64
		want    bool
	}{
		{4.00, true}, // boundary is inclusive
		{3.99, false},
		{4.01, true},
		{0, false},
		{10, true},
	}

	for _, tt := range tests {
		if got := Viable(tt.overall); got != tt.want {
			t.Errorf("Viable(%v) = %v, want %v", tt.overall, got, tt.want)
		}
	}
}

func TestWeightsSumToOne(t *testing.T) {
	sum := weightSpeed + weightConvenience + weightTrust + weightPrice +
		weightStatus + weightPredictability + weightUIUX + weightEaseOfUse +
		weightLegalFriction + weightEmotionalComfort
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("dimension weights sum to %v, want 1.0", sum)
	}
}
