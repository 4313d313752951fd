package srs

// Params defines all configurable parameters for the priority scheduler
type Params struct {
	// ApplicationThreshold is the number of days without practical use after
	// which a card is forced into today's list (A_THRESHOLD).
	ApplicationThreshold int

	// TargetCount is the desired size of today's list (K_TARGET). Forced cards
	// may push the list beyond it.
	TargetCount int

	// ForcedScoreOffset is added to the hunger factor to report the score of
	// forced cards. Tier membership never depends on it.
	ForcedScoreOffset float64

	// Urgency weights applied to the overdue factor
	CoreWeight    int
	RegularWeight int

	// HungerDivisor scales the hunger factor's contribution to ranked scores
	HungerDivisor int
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance.
// Zero values keep the defaults.
type ParamsConfig struct {
	ApplicationThreshold int
	TargetCount          int
	ForcedScoreOffset    float64
	CoreWeight           int
	RegularWeight        int
	HungerDivisor        int
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		ApplicationThreshold: 30,
		TargetCount:          5,
		ForcedScoreOffset:    10000,
		CoreWeight:           2,
		RegularWeight:        1,
		HungerDivisor:        5,
	}
}

// NewParams creates a new Params instance with custom configuration
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.ApplicationThreshold > 0 {
		params.ApplicationThreshold = config.ApplicationThreshold
	}
	if config.TargetCount > 0 {
		params.TargetCount = config.TargetCount
	}
	if config.ForcedScoreOffset > 0 {
		params.ForcedScoreOffset = config.ForcedScoreOffset
	}
	if config.CoreWeight > 0 {
		params.CoreWeight = config.CoreWeight
	}
	if config.RegularWeight > 0 {
		params.RegularWeight = config.RegularWeight
	}
	if config.HungerDivisor > 0 {
		params.HungerDivisor = config.HungerDivisor
	}

	return params
}
