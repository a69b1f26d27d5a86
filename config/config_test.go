package config

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/spatialmodel/worldfield/terrain"
)

func writeFixture(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.toml")
	if err := ioutil.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestLoadDecodesTOMLFixture(t *testing.T) {
	path := writeFixture(t, `
WorldSeed = 42
DomainID = 7

[Terrain]
Radius = 256
CellSize = 8
`)
	fx, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if fx.WorldSeed != 42 {
		t.Fatalf("WorldSeed = %d, want 42", fx.WorldSeed)
	}
	if fx.DomainID != 7 {
		t.Fatalf("DomainID = %d, want 7", fx.DomainID)
	}
	if fx.Terrain.Radius != 256 {
		t.Fatalf("Terrain.Radius = %v, want 256", fx.Terrain.Radius)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("Load: expected error for missing file, got nil")
	}
}

func TestLoadDefaultsWorldSeed(t *testing.T) {
	path := writeFixture(t, "")
	fx, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if fx.WorldSeed != 1 {
		t.Fatalf("WorldSeed = %d, want default 1", fx.WorldSeed)
	}
}

func TestTerrainDescOverlaysOnlyNonZeroFields(t *testing.T) {
	path := writeFixture(t, `
[Terrain]
Radius = 128
`)
	fx, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	d := fx.TerrainDesc()
	want := terrain.NewSurfaceDesc()
	if d.Radius.Int() != 128 {
		t.Fatalf("Radius = %v, want 128", d.Radius.Float())
	}
	if d.CellSize != want.CellSize {
		t.Fatalf("CellSize should keep the built-in default when unset: got %v, want %v", d.CellSize, want.CellSize)
	}
}

func TestVegetationDescWiresNestedOverrides(t *testing.T) {
	path := writeFixture(t, `
WorldSeed = 9

[Terrain]
Radius = 64
`)
	fx, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	d := fx.VegetationDesc()
	if d.Terrain.Radius.Int() != 64 {
		t.Fatalf("nested Terrain.Radius = %v, want 64", d.Terrain.Radius.Float())
	}
	if d.WorldSeed != 9 {
		t.Fatalf("WorldSeed = %d, want 9", d.WorldSeed)
	}
	if d.Climate.WorldSeed != 9 {
		t.Fatalf("nested Climate.WorldSeed = %d, want 9", d.Climate.WorldSeed)
	}
}

func TestAnimalDescWiresVegetationFanOut(t *testing.T) {
	path := writeFixture(t, `
[Animal]
DecisionPeriodTicks = 50
`)
	fx, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	d := fx.AnimalDesc()
	if d.DecisionPeriodTicks != 50 {
		t.Fatalf("DecisionPeriodTicks = %d, want 50", d.DecisionPeriodTicks)
	}
	if d.Vegetation.Species == nil {
		t.Fatal("expected default vegetation species table to survive the overlay")
	}
}
