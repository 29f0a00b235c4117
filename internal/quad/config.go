package quad

import "github.com/pkg/errors"

// Strategy names accepted by Config.Strategy.
const (
	StrategyAuto      = "auto"
	StrategyEnumerate = "enumerate"
	StrategyNearest   = "nearest"
)

// Corner derivation modes accepted by Config.CornerMode.
const (
	CornersBounds    = "bounds"
	CornersIntersect = "intersect"
)

// Config tunes candidate search and selection.
type Config struct {
	// Strategy picks the candidate search: auto, enumerate or nearest.
	Strategy string `yaml:"strategy"`

	// ConnectDistance is the largest endpoint gap (pixels) at which two lines
	// count as connected during enumeration.
	ConnectDistance float64 `yaml:"connect_distance"`

	// MaxCornerDistance bounds the endpoint distance of a nearest-neighbor
	// pairing.
	MaxCornerDistance float64 `yaml:"max_corner_distance"`

	// AutoEnumerateLimit is the total line count up to which auto uses the
	// combinatorial search.
	AutoEnumerateLimit int `yaml:"auto_enumerate_limit"`

	// AngleTolerance is the allowed angle-sum deviation, in degrees.
	AngleTolerance float64 `yaml:"angle_tolerance"`

	// AreaTieRatio treats areas within this relative difference as equal.
	AreaTieRatio float64 `yaml:"area_tie_ratio"`

	// AspectMin and AspectMax bound the expected width:height ratio. The band
	// is used for ranking when AspectMax is positive.
	AspectMin float64 `yaml:"aspect_min"`
	AspectMax float64 `yaml:"aspect_max"`

	// AspectGate rejects hypotheses whose aspect lies outside the band.
	AspectGate bool `yaml:"aspect_gate"`

	// CornerMode derives corners from member endpoint bounds or from line
	// intersections.
	CornerMode string `yaml:"corner_mode"`

	// MinArea is the smallest corner polygon area accepted, in square pixels.
	MinArea float64 `yaml:"min_area"`
}

// DefaultConfig returns the standard search and selection settings.
func DefaultConfig() Config {
	return Config{
		Strategy:           StrategyAuto,
		ConnectDistance:    12,
		MaxCornerDistance:  25,
		AutoEnumerateLimit: 24,
		AngleTolerance:     10,
		AreaTieRatio:       0.02,
		AspectMin:          1.5,
		AspectMax:          3.0,
		CornerMode:         CornersBounds,
		MinArea:            100,
	}
}

// Validate checks names and ranges.
func (c Config) Validate() error {
	switch c.Strategy {
	case StrategyAuto, StrategyEnumerate, StrategyNearest:
	default:
		return errors.Errorf("unknown strategy %q", c.Strategy)
	}
	switch c.CornerMode {
	case CornersBounds, CornersIntersect:
	default:
		return errors.Errorf("unknown corner_mode %q", c.CornerMode)
	}
	switch {
	case c.ConnectDistance <= 0:
		return errors.Errorf("connect_distance must be > 0, got %v", c.ConnectDistance)
	case c.MaxCornerDistance <= 0:
		return errors.Errorf("max_corner_distance must be > 0, got %v", c.MaxCornerDistance)
	case c.AngleTolerance < 0:
		return errors.Errorf("angle_tolerance must be >= 0, got %v", c.AngleTolerance)
	case c.AreaTieRatio < 0:
		return errors.Errorf("area_tie_ratio must be >= 0, got %v", c.AreaTieRatio)
	case c.AspectMax > 0 && c.AspectMin > c.AspectMax:
		return errors.Errorf("aspect_min %v exceeds aspect_max %v", c.AspectMin, c.AspectMax)
	case c.AspectGate && c.AspectMax <= 0:
		return errors.New("aspect_gate requires aspect_max")
	case c.MinArea < 0:
		return errors.Errorf("min_area must be >= 0, got %v", c.MinArea)
	}
	return nil
}
