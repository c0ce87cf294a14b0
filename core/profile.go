package core

// Profile holds the long-lived athlete facts reloaded from the persistence
// sink each time a request state is created.
type Profile struct {
	Name           string   `json:"name"`
	GradYear       int      `json:"grad_year,omitempty"`
	WeightKG       float64  `json:"weight_kg,omitempty"`
	TargetDivision string   `json:"target_division,omitempty"`
	HomeCity       string   `json:"home_city,omitempty"`
	Programs       []string `json:"programs,omitempty"` // program page URLs being tracked
}

// IsZero reports whether no profile was loaded.
func (p Profile) IsZero() bool { return p.Name == "" }

func (p Profile) clone() Profile {
	c := p
	c.Programs = append([]string(nil), p.Programs...)
	return c
}
