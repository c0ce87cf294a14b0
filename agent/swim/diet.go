package swim

import (
	"context"
	"fmt"
	"math"

	"github.com/hupe1980/pathway/agent"
	"github.com/hupe1980/pathway/core"
)

// KindNutritionPlan is the payload kind of the diet agent.
const KindNutritionPlan = "nutrition_plan"

// Fueling phases.
const (
	PhasePreRace  = "pre_race"
	PhaseRecovery = "recovery"
)

// NutritionPlan holds carbohydrate, protein and fluid targets.
type NutritionPlan struct {
	Phase    string  `json:"phase"`
	WeightKG float64 `json:"weight_kg"`
	CarbsG   float64 `json:"carbs_g"`
	ProteinG float64 `json:"protein_g"`
	FluidML  float64 `json:"fluid_ml"`
}

// Kind implements core.Payload.
func (NutritionPlan) Kind() string { return KindNutritionPlan }

// per-kg targets
type fuelRule struct {
	carbsPerKG   float64
	proteinPerKG float64
	fluidML      float64
}

var fuelRules = map[string]fuelRule{
	PhasePreRace:  {carbsPerKG: 2.0, proteinPerKG: 0.3, fluidML: 500},
	PhaseRecovery: {carbsPerKG: 1.2, proteinPerKG: 0.4, fluidML: 750},
}

// Diet computes meal targets from body weight.
type Diet struct {
	agent.Base
}

// NewDiet returns the nutrition agent.
func NewDiet() *Diet {
	d := &Diet{Base: agent.NewBase(DietName)}
	d.SetDescription("Pre-race and recovery fueling targets from body weight")
	return d
}

// PayloadKind implements core.Kinded.
func (d *Diet) PayloadKind() string { return KindNutritionPlan }

// Run implements core.Agent. Weight comes from context weight_kg, then the profile.
func (d *Diet) Run(_ context.Context, view core.View) (core.Output, error) {
	weight, ok := view.Float("weight_kg")
	if !ok || weight <= 0 {
		weight = view.Profile().WeightKG
	}
	if weight <= 0 {
		return d.Degraded("no data available: body weight unknown, add weight_kg to the profile"), nil
	}

	phase := PhasePreRace
	if view.QueryMentions("after", "recovery", "recover", "post-race", "post race") {
		phase = PhaseRecovery
	}
	rule := fuelRules[phase]
	plan := NutritionPlan{
		Phase:    phase,
		WeightKG: weight,
		CarbsG:   round1(rule.carbsPerKG * weight),
		ProteinG: round1(rule.proteinPerKG * weight),
		FluidML:  rule.fluidML,
	}

	name := view.Athlete()
	if name == "" {
		name = "the athlete"
	}
	var out core.Output
	if phase == PhaseRecovery {
		out = d.Output(fmt.Sprintf("Recovery meal for %s (%.0f kg): %.0f g carbs, %.0f g protein, %.0f ml fluids within 30 minutes.",
			name, weight, plan.CarbsG, plan.ProteinG, plan.FluidML)).
			Recommend(
				"Eat within 30 minutes of the last swim",
				"Chocolate milk or a recovery shake covers the protein target",
			).
			Act("Pack a recovery snack in the meet bag", core.PriorityMedium)
	} else {
		out = d.Output(fmt.Sprintf("Pre-race fuel for %s (%.0f kg): %.0f g carbs, %.0f g protein, %.0f ml fluids 2-3 hours before warm-up.",
			name, weight, plan.CarbsG, plan.ProteinG, plan.FluidML)).
			Recommend(
				"Favor easy-to-digest carbs: rice, pasta, bagels, bananas",
				"Avoid high-fat and high-fiber foods the morning of the meet",
				"Sip water steadily rather than drinking it all at once",
			).
			Act("Plan the pre-race meal 3 hours before warm-up", core.PriorityHigh)
	}
	return out.WithData(plan), nil
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

var (
	_ core.Agent  = (*Diet)(nil)
	_ core.Kinded = (*Diet)(nil)
)
