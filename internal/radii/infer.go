package radii

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cyclonewatch/stormtrack/internal/model"
)

// Coefficients holds the per-basin empirical power-law parameters R = a *
// Vmax^b + c for one wind threshold. Hand-tuned, not calibrated: these are
// a starting configuration that LoadBasinCoefficients can override at
// startup. They are not recorded in Zone.Parameters.
type Coefficients struct {
	A, B, C float64
}

// BasinCoefficients holds the per-basin, per-threshold coefficient table.
// Values approximate published symmetric-vortex radius climatology; a basin
// missing from the table falls back to the Atlantic table in
// InferQuadrants.
var BasinCoefficients = map[model.Basin]map[int]Coefficients{
	model.BasinAL: {
		34: {A: 3.5, B: 1.05, C: 20},
		50: {A: 2.1, B: 1.0, C: 10},
		64: {A: 1.2, B: 0.95, C: 5},
	},
	model.BasinEP: {
		34: {A: 3.1, B: 1.0, C: 18},
		50: {A: 1.9, B: 0.97, C: 9},
		64: {A: 1.05, B: 0.93, C: 4},
	},
	model.BasinWP: {
		34: {A: 4.0, B: 1.02, C: 25},
		50: {A: 2.4, B: 0.98, C: 12},
		64: {A: 1.35, B: 0.94, C: 6},
	},
	model.BasinCP: {
		34: {A: 3.1, B: 1.0, C: 18},
		50: {A: 1.9, B: 0.97, C: 9},
		64: {A: 1.05, B: 0.93, C: 4},
	},
	model.BasinSH: {
		34: {A: 3.3, B: 1.0, C: 20},
		50: {A: 2.0, B: 0.97, C: 10},
		64: {A: 1.1, B: 0.93, C: 5},
	},
	model.BasinIO: {
		34: {A: 2.8, B: 0.98, C: 15},
		50: {A: 1.7, B: 0.95, C: 8},
		64: {A: 0.95, B: 0.9, C: 3},
	},
}

// CoefficientsOverride mirrors Coefficients with lowercase YAML field
// names for operator-supplied override files.
type CoefficientsOverride struct {
	A float64 `yaml:"a"`
	B float64 `yaml:"b"`
	C float64 `yaml:"c"`
}

// LoadBasinCoefficients reads a YAML file shaped
// {basin: {threshold: {a, b, c}}} and merges it over BasinCoefficients,
// so the hand-tuned radii-inference table can be
// retuned by operators without a rebuild.
func LoadBasinCoefficients(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read coefficients override: %w", err)
	}

	var override map[model.Basin]map[int]CoefficientsOverride
	if err := yaml.Unmarshal(data, &override); err != nil {
		return fmt.Errorf("parse coefficients override: %w", err)
	}

	for basin, thresholds := range override {
		table, ok := BasinCoefficients[basin]
		if !ok {
			table = map[int]Coefficients{}
			BasinCoefficients[basin] = table
		}

		for threshold, c := range thresholds {
			table[threshold] = Coefficients{A: c.A, B: c.B, C: c.C}
		}
	}

	return nil
}

// maxSpeedFactor caps the forward-speed asymmetry multiplier.
const maxSpeedFactor = 1.5

// speedFactorDenominator is the knot value at which the asymmetry
// multiplier saturates (min(speed/20, 1.5)).
const speedFactorDenominator = 20.0

// quadrantAsymmetry scales the base radius per quadrant to express the
// right-front-enhanced, left-rear-reduced wind-field asymmetry induced by
// forward motion, keyed by fixed compass quadrant: NE always takes the
// right-front role, since InferQuadrants has no motion bearing input.
var quadrantAsymmetry = map[model.Quadrant]float64{
	model.QuadrantNE: 1.0,
	model.QuadrantSE: 0.85,
	model.QuadrantSW: 0.7,
	model.QuadrantNW: 0.85,
}

// InferQuadrants derives one model.Radii per quadrant (NE, SE, SW, NW),
// each carrying all three thresholds, for vmaxKt/motionSpeedKt under
// basin's empirical coefficients.
func InferQuadrants(basin model.Basin, vmaxKt, motionSpeedKt float64) []model.Radii {
	table, ok := BasinCoefficients[basin]
	if !ok {
		table = BasinCoefficients[model.BasinAL]
	}

	speedFactor := math.Min(motionSpeedKt/speedFactorDenominator, maxSpeedFactor)

	quadrantOrder := [4]model.Quadrant{model.QuadrantNE, model.QuadrantSE, model.QuadrantSW, model.QuadrantNW}

	out := make([]model.Radii, 0, 4)

	for _, q := range quadrantOrder {
		asym := 1.0 + (quadrantAsymmetry[q]-1.0)*speedFactor

		r34 := baseRadius(table[34], vmaxKt) * asym
		r50 := baseRadius(table[50], vmaxKt) * asym
		r64 := baseRadius(table[64], vmaxKt) * asym

		out = append(out, model.Radii{
			Quadrant: q,
			R34:      r34,
			R50:      r50,
			R64:      r64,
			Source:   model.RadiiSourceInferred,
		})
	}

	return out
}

func baseRadius(coef Coefficients, vmaxKt float64) float64 {
	return coef.A*math.Pow(math.Max(vmaxKt, 0), coef.B) + coef.C
}
