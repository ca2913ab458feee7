package food

import "strings"

// RecipeRequest is a free-text recipe wish broken into constraints.
type RecipeRequest struct {
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
	// SpiceLevel is mild, medium or hot; empty means no preference.
	SpiceLevel          string   `json:"spice_level,omitempty" yaml:"spice_level,omitempty"`
	FlavorProfile       []string `json:"flavor_profile" yaml:"flavor_profile"`
	Servings            int      `json:"servings" yaml:"servings"`
	DietaryRestrictions []string `json:"dietary_restrictions,omitempty" yaml:"dietary_restrictions,omitempty"`
}

var spiceLevels = map[string]bool{"mild": true, "medium": true, "hot": true}

// Normalize trims the request and fills in one serving. Unknown spice
// levels are dropped.
func (r RecipeRequest) Normalize() RecipeRequest {
	r.Title = strings.TrimSpace(r.Title)
	r.SpiceLevel = strings.ToLower(strings.TrimSpace(r.SpiceLevel))
	if !spiceLevels[r.SpiceLevel] {
		r.SpiceLevel = ""
	}
	r.FlavorProfile = compactStrings(r.FlavorProfile)
	r.DietaryRestrictions = compactStrings(r.DietaryRestrictions)
	if r.Servings < 1 {
		r.Servings = DefaultServings
	}
	return r
}

func compactStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
