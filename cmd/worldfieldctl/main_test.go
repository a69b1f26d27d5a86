package main

import (
	"testing"

	"github.com/spatialmodel/worldfield/config"
	"github.com/spatialmodel/worldfield/worldfield"
)

func TestSampleDomainCoversEveryDomain(t *testing.T) {
	fx := &config.Fixture{WorldSeed: 1}
	budget := worldfield.NewBudget(1 << 20)
	p := worldfield.Point{}

	for _, domain := range []string{"terrain", "climate", "weather", "geology", "vegetation", "animal"} {
		fields, err := sampleDomain(fx, domain, p, 0, budget)
		if err != nil {
			t.Fatalf("sampleDomain(%q): %v", domain, err)
		}
		if len(fields) == 0 {
			t.Fatalf("sampleDomain(%q): expected non-empty fields", domain)
		}
	}
}

func TestSampleDomainRejectsUnknownDomain(t *testing.T) {
	fx := &config.Fixture{WorldSeed: 1}
	budget := worldfield.NewBudget(1 << 20)
	if _, err := sampleDomain(fx, "nonsense", worldfield.Point{}, 0, budget); err == nil {
		t.Fatal("sampleDomain: expected error for unknown domain")
	}
}
