package scoring

// Weight categories. Each profile's weights sum to 1.0.
const (
	WeightIndicators   = "indicators"
	WeightStructure    = "structure"
	WeightMomentum     = "momentum"
	WeightVolume       = "volume"
	WeightAvailability = "availability"
)

// Profile is a named weight vector biasing the scorer toward a trading style.
type Profile map[string]float64

var profiles = map[string]Profile{
	"default": {
		WeightIndicators:   0.30,
		WeightStructure:    0.25,
		WeightMomentum:     0.15,
		WeightVolume:       0.15,
		WeightAvailability: 0.15,
	},
	// scalping favors momentum over the slower categories
	"scalping": {
		WeightIndicators:   0.25,
		WeightStructure:    0.20,
		WeightMomentum:     0.25,
		WeightVolume:       0.20,
		WeightAvailability: 0.10,
	},
	// swing favors market structure
	"swing": {
		WeightIndicators:   0.25,
		WeightStructure:    0.35,
		WeightMomentum:     0.10,
		WeightVolume:       0.15,
		WeightAvailability: 0.15,
	},
}

// ProfileFor returns the named profile, falling back to "default" for
// unknown keys.
func ProfileFor(name string) Profile {
	if p, ok := profiles[name]; ok {
		return p
	}
	return profiles["default"]
}
