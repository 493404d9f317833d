package sweep

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ducminhle1904/crypto-grid-sim/internal/grid"
)

// MaxConfigs bounds the size of an expanded parameter space
const MaxConfigs = 100000

// Range is an inclusive sequence Start, Start+Step, ... <= End.
// A zero Step or Start == End yields the single value Start.
type Range struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
	Step  float64 `json:"step" yaml:"step"`
}

// Fixed is a range holding one value
func Fixed(v float64) Range {
	return Range{Start: v, End: v}
}

// IsZero reports whether the range was left unset
func (r Range) IsZero() bool {
	return r == Range{}
}

// Values lists the points of the range
func (r Range) Values() ([]float64, error) {
	if math.IsNaN(r.Start) || math.IsNaN(r.End) || math.IsNaN(r.Step) {
		return nil, fmt.Errorf("range contains NaN")
	}
	if r.Step == 0 || r.Start == r.End {
		return []float64{r.Start}, nil
	}
	if r.Step < 0 {
		return nil, fmt.Errorf("step must be positive, got: %g", r.Step)
	}
	if r.End < r.Start {
		return nil, fmt.Errorf("end %g is before start %g", r.End, r.Start)
	}

	count := int(math.Floor((r.End-r.Start)/r.Step+1e-9)) + 1
	if count > MaxConfigs {
		return nil, fmt.Errorf("range %g..%g step %g has %d values (max %d)", r.Start, r.End, r.Step, count, MaxConfigs)
	}

	values := make([]float64, count)
	for i := range values {
		values[i] = r.Start + float64(i)*r.Step
	}
	return values, nil
}

// ParseRange reads "start:end:step", "start:end" (step 1) or a single value
func ParseRange(s string) (Range, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	nums := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Range{}, fmt.Errorf("invalid range %q: %w", s, err)
		}
		nums[i] = v
	}

	switch len(nums) {
	case 1:
		return Fixed(nums[0]), nil
	case 2:
		return Range{Start: nums[0], End: nums[1], Step: 1}, nil
	case 3:
		return Range{Start: nums[0], End: nums[1], Step: nums[2]}, nil
	}
	return Range{}, fmt.Errorf("invalid range %q: expected start:end[:step]", s)
}

// Space is the parameter space of a sweep
type Space struct {
	LowerLimit Range `json:"lower_limit" yaml:"lower_limit"`
	UpperLimit Range `json:"upper_limit" yaml:"upper_limit"`
	NumGrids   Range `json:"num_grids" yaml:"num_grids"`
	Investment Range `json:"investment" yaml:"investment"`
}

// FixedSpace is the single point space of a base configuration
func FixedSpace(base grid.Config) Space {
	return Space{
		LowerLimit: Fixed(base.LowerLimit),
		UpperLimit: Fixed(base.UpperLimit),
		NumGrids:   Fixed(float64(base.NumGrids)),
		Investment: Fixed(base.Investment),
	}
}

// ParseSpace applies comma separated name=range overrides to the fixed space
// of base, e.g. "grids=10:50:10,investment=1000:5000:1000".
func ParseSpace(spec string, base grid.Config) (Space, error) {
	space := FixedSpace(base)
	if strings.TrimSpace(spec) == "" {
		return space, nil
	}

	for _, item := range strings.Split(spec, ",") {
		name, value, ok := strings.Cut(strings.TrimSpace(item), "=")
		if !ok {
			return Space{}, fmt.Errorf("invalid sweep parameter %q: expected name=start:end:step", item)
		}
		r, err := ParseRange(value)
		if err != nil {
			return Space{}, err
		}

		switch strings.ToLower(strings.TrimSpace(name)) {
		case "lower", "lower_limit":
			space.LowerLimit = r
		case "upper", "upper_limit":
			space.UpperLimit = r
		case "grids", "num_grids":
			space.NumGrids = r
		case "investment":
			space.Investment = r
		default:
			return Space{}, fmt.Errorf("unknown sweep parameter %q (use lower, upper, grids or investment)", name)
		}
	}
	return space, nil
}

// Expand returns the cartesian product of the space in lower, upper, grids,
// investment order. Combinations that fail grid.Config validation are dropped.
func (s Space) Expand() ([]grid.Config, error) {
	lowers, err := s.LowerLimit.Values()
	if err != nil {
		return nil, fmt.Errorf("lower_limit: %w", err)
	}
	uppers, err := s.UpperLimit.Values()
	if err != nil {
		return nil, fmt.Errorf("upper_limit: %w", err)
	}
	gridCounts, err := s.NumGrids.Values()
	if err != nil {
		return nil, fmt.Errorf("num_grids: %w", err)
	}
	investments, err := s.Investment.Values()
	if err != nil {
		return nil, fmt.Errorf("investment: %w", err)
	}

	total := len(lowers) * len(uppers) * len(gridCounts) * len(investments)
	if total > MaxConfigs {
		return nil, fmt.Errorf("sweep has %d combinations (max %d)", total, MaxConfigs)
	}

	configs := make([]grid.Config, 0, total)
	for _, lower := range lowers {
		for _, upper := range uppers {
			for _, n := range gridCounts {
				for _, investment := range investments {
					cfg := grid.Config{
						LowerLimit: lower,
						UpperLimit: upper,
						NumGrids:   int(math.Round(n)),
						Investment: investment,
					}
					if cfg.Validate() != nil {
						continue
					}
					configs = append(configs, cfg)
				}
			}
		}
	}
	return configs, nil
}
