package geo

import (
	"errors"
	"testing"
)

func TestZeroDistanceIsInside(t *testing.T) {
	if !IsWithinRadius(12.9692, 79.1559, 12.9692, 79.1559, 5) {
		t.Fatal("identical coordinates should be within any non-negative radius")
	}
}

func TestOutsideRadius(t *testing.T) {
	// Roughly 12 km from campus, well outside the 5 km fence.
	if IsWithinRadius(13.05, 79.25, 12.9692, 79.1559, 5) {
		t.Fatal("coordinates ~12km apart reported inside 5km radius")
	}
}

func TestBoundaryDistanceIsInside(t *testing.T) {
	lat, lng := 13.01, 79.20
	d := Distance(lat, lng, CampusLatitude, CampusLongitude)
	if !IsWithinRadius(lat, lng, CampusLatitude, CampusLongitude, d) {
		t.Fatalf("distance exactly equal to radius (%f km) should be inside", d)
	}
}

func TestDistanceSymmetry(t *testing.T) {
	a := Distance(13.05, 79.25, 12.9692, 79.1559)
	b := Distance(12.9692, 79.1559, 13.05, 79.25)
	if a != b {
		t.Fatalf("distance not symmetric: %f != %f", a, b)
	}
	if a < 10 || a > 14 {
		t.Fatalf("expected ~12km, got %f", a)
	}
}

func TestOutOfRangeCoordinatesDoNotPanic(t *testing.T) {
	// Degenerate inputs degrade through the trig identities, never panic.
	if d := Distance(400, -720, -95, 190); d < 0 {
		t.Fatalf("negative distance %f", d)
	}
}

func TestGateAdmit(t *testing.T) {
	gate := CampusGate()

	ok, err := gate.Admit(StaticSource{Lat: CampusLatitude, Lng: CampusLongitude})
	if err != nil || !ok {
		t.Fatalf("on-campus source denied: ok=%v err=%v", ok, err)
	}

	ok, err = gate.Admit(StaticSource{Lat: 13.05, Lng: 79.25})
	if err != nil || ok {
		t.Fatalf("off-campus source admitted: ok=%v err=%v", ok, err)
	}
}

func TestEnvSourceUnavailable(t *testing.T) {
	t.Setenv("GEO_LATITUDE", "")
	t.Setenv("GEO_LONGITUDE", "")

	gate := CampusGate()
	if _, err := gate.Admit(EnvSource{}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestEnvSource(t *testing.T) {
	t.Setenv("GEO_LATITUDE", "12.9692")
	t.Setenv("GEO_LONGITUDE", "79.1559")

	ok, err := CampusGate().Admit(EnvSource{})
	if err != nil || !ok {
		t.Fatalf("env source on campus denied: ok=%v err=%v", ok, err)
	}
}
