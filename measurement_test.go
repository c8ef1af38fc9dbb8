package decklens

import (
	"math"
	"testing"
)

func TestMeasurementConversions(t *testing.T) {
	if Inch(1) != 914400 {
		t.Errorf("Inch(1) = %d", Inch(1))
	}
	if Point(1) != 12700 {
		t.Errorf("Point(1) = %d", Point(1))
	}
	if Centimeter(1) != 360000 {
		t.Errorf("Centimeter(1) = %d", Centimeter(1))
	}
	if got := EMUToInch(914400); got != 1 {
		t.Errorf("EMUToInch(914400) = %v", got)
	}
	if got := EMUToPoint(12700); got != 1 {
		t.Errorf("EMUToPoint(12700) = %v", got)
	}
	if got := EMUToInch(Inch(13.333)); math.Abs(got-13.333) > 1e-6 {
		t.Errorf("inch round trip = %v", got)
	}
}

func TestMeasurementClamps(t *testing.T) {
	if got := clampEMU(math.MaxFloat64); got != maxEMU {
		t.Errorf("clampEMU(+inf-ish) = %d", got)
	}
	if got := clampEMU(-math.MaxFloat64); got != -maxEMU {
		t.Errorf("clampEMU(-inf-ish) = %d", got)
	}
}
