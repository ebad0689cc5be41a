package scenario

func rate(v float64) *float64 { return &v }

// BuiltIn returns the predefined power profiles.
func BuiltIn() map[string]Scenario {
	return map[string]Scenario{
		"steady": {
			Name:        "Steady",
			Description: "Constant solar generation in a sunlit parking orbit.",
			Phases: []Phase{
				{Name: "sunlit", Description: "Panels deliver the configured generation rate."},
			},
		},
		"eclipse": {
			Name:        "Eclipse",
			Description: "Low orbit cycling between sunlight and planetary shadow.",
			Phases: []Phase{
				{
					Name:        "sunlit",
					Description: "Panels deliver the configured generation rate.",
					Triggers:    []Trigger{{Event: EventTimeElapsed, Value: 1800, Next: "shadow"}},
				},
				{
					Name:           "shadow",
					Description:    "No generation; cooling runs from the batteries.",
					GenerationRate: rate(0),
					Triggers:       []Trigger{{Event: EventTimeElapsed, Value: 1200, Next: "sunlit"}},
				},
			},
		},
		"brownout": {
			Name:        "Brownout",
			Description: "Generation fails and the crew sheds cooling load once batteries run low.",
			Phases: []Phase{
				{
					Name:        "nominal",
					Description: "Generation at the configured rate.",
					Triggers:    []Trigger{{Event: EventTimeElapsed, Value: 600, Next: "failure"}},
				},
				{
					Name:           "failure",
					Description:    "Generator offline; batteries carry the cooling load.",
					GenerationRate: rate(0),
					Triggers:       []Trigger{{Event: EventPowerBelow, Value: 0.2, Next: "load-shed"}},
				},
				{
					Name:           "load-shed",
					Description:    "Cooling disabled on every tank to preserve reserve power.",
					GenerationRate: rate(0),
					Cooling:        map[string]bool{AllTanks: false},
					Triggers:       []Trigger{{Event: EventTimeElapsed, Value: 3600, Next: "recovery"}},
				},
				{
					Name:        "recovery",
					Description: "Generator restored and cooling re-enabled.",
					Cooling:     map[string]bool{AllTanks: true},
				},
			},
		},
	}
}
