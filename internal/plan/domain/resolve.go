package domain

import (
	"fmt"
	"strings"
)

// Resolve looks a plan up by exact ID. An empty planID is the
// "nothing selected yet" state and simply reports false.
func Resolve(planID string, catalog []Plan) (Plan, bool) {
	if planID == "" {
		return Plan{}, false
	}
	for _, plan := range catalog {
		if plan.ID == planID {
			return plan, true
		}
	}
	return Plan{}, false
}

// ExistingPlan identifies the plan a subscription being updated is on.
type ExistingPlan struct {
	PlanID string
}

type Option struct {
	Label    string `json:"label"`
	Value    string `json:"value"`
	Disabled bool   `json:"disabled"`
}

// Options builds the plan picker entries. The plan the existing
// subscription is already on cannot be picked again.
func Options(catalog []Plan, existing *ExistingPlan) []Option {
	out := make([]Option, 0, len(catalog))
	for _, plan := range catalog {
		disabled := false
		if existing != nil && strings.TrimSpace(existing.PlanID) != "" {
			disabled = existing.PlanID == plan.ID
		}
		out = append(out, Option{
			Label:    fmt.Sprintf("%s - (%s)", plan.Name, plan.Code),
			Value:    plan.ID,
			Disabled: disabled,
		})
	}
	return out
}
