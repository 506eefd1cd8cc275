package planeseg

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// minMergeDist is the floor applied to the region-growing tolerance
// distance (spec.md §4.4 step 3). The source hard-codes this as 20 with a
// TODO to expose it as a config key; that TODO is carried forward here
// rather than resolved, per spec.md §9's Open Questions.
// TODO: expose as a config key once a calling convention needs it tunable.
const minMergeDist = 20.0

// AttributeMap is a string-keyed, typed-on-read configuration map, modeled
// on the teacher's typed attribute-map config pattern but returning errors
// instead of panicking (spec.md §6-§7 requires InvalidConfig to surface as
// a returned error).
type AttributeMap map[string]interface{}

// GetFloat64 reads a float64-valued key, accepting both float64 and int
// underlying values (as a map decoded from JSON would produce).
func (am AttributeMap) GetFloat64(name string, def float64) (float64, error) {
	x, has := am[name]
	if !has {
		return def, nil
	}
	switch v := x.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	}
	return 0, errors.Errorf("config key %q: wanted a float64, got %T", name, x)
}

// GetInt reads an int-valued key, accepting both int and float64 (as JSON
// numbers decode) underlying values.
func (am AttributeMap) GetInt(name string, def int) (int, error) {
	x, has := am[name]
	if !has {
		return def, nil
	}
	switch v := x.(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	}
	return 0, errors.Errorf("config key %q: wanted an int, got %T", name, x)
}

// GetBool reads a bool-valued key.
func (am AttributeMap) GetBool(name string, def bool) (bool, error) {
	x, has := am[name]
	if !has {
		return def, nil
	}
	v, ok := x.(bool)
	if !ok {
		return false, errors.Errorf("config key %q: wanted a bool, got %T", name, x)
	}
	return v, nil
}

var knownConfigKeys = map[string]bool{
	"patchSize":                      true,
	"histogramBinsPerCoord":          true,
	"minCosAngleForMerge":            true,
	"maxMergeDist":                   true,
	"minRegionGrowingCandidateSize":  true,
	"minRegionGrowingCellsActivated": true,
	"minRegionPlanarityScore":        true,
	"doRefinement":                   true,
	"refinementMultiplierCoeff":      true,
	"depthSigmaCoeff":                true,
	"depthSigmaMargin":               true,
	"minPtsPerCell":                  true,
	"depthDiscontinuityThreshold":    true,
	"maxNumberDepthDiscontinuity":    true,
}

// Config holds every recognized, typed pipeline parameter from spec.md §6.
type Config struct {
	PatchSize                     int
	HistogramBinsPerCoord         int
	MinCosAngleForMerge           float64
	MaxMergeDist                  float64
	MinRegionGrowingCandidateSize int
	MinRegionGrowingCellsActivated int
	MinRegionPlanarityScore       float64
	DoRefinement                  bool
	RefinementMultiplierCoeff     float64
	DepthSigmaCoeff               float64
	DepthSigmaMargin              float64
	MinPtsPerCell                 int
	DepthDiscontinuityThreshold   float64
	MaxNumberDepthDiscontinuity   int
}

// DefaultConfig returns a Config with reasonable defaults for a depth
// sensor reporting in millimeters.
func DefaultConfig() *Config {
	return &Config{
		PatchSize:                      12,
		HistogramBinsPerCoord:          20,
		MinCosAngleForMerge:            0.965, // ~15 degrees
		MaxMergeDist:                   50 * 50,
		MinRegionGrowingCandidateSize:  2,
		MinRegionGrowingCellsActivated: 4,
		MinRegionPlanarityScore:        10,
		DoRefinement:                   true,
		RefinementMultiplierCoeff:      10,
		DepthSigmaCoeff:                0.001,
		DepthSigmaMargin:               10,
		MinPtsPerCell:                  6,
		DepthDiscontinuityThreshold:    50,
		MaxNumberDepthDiscontinuity:    1,
	}
}

// NewConfig builds a Config from an AttributeMap, layering supplied values
// over DefaultConfig, and rejects any key not in the recognized set
// (spec.md §7, InvalidConfig "unknown key requested"). It does not call
// Validate; callers should call Validate before use (Pipeline construction
// does this for them).
func NewConfig(am AttributeMap) (*Config, error) {
	for key := range am {
		if !knownConfigKeys[key] {
			return nil, &InvalidConfigError{Reasons: []string{"unknown config key: " + key}}
		}
	}

	cfg := DefaultConfig()
	var err error
	if cfg.PatchSize, err = am.GetInt("patchSize", cfg.PatchSize); err != nil {
		return nil, err
	}
	if cfg.HistogramBinsPerCoord, err = am.GetInt("histogramBinsPerCoord", cfg.HistogramBinsPerCoord); err != nil {
		return nil, err
	}
	if cfg.MinCosAngleForMerge, err = am.GetFloat64("minCosAngleForMerge", cfg.MinCosAngleForMerge); err != nil {
		return nil, err
	}
	if cfg.MaxMergeDist, err = am.GetFloat64("maxMergeDist", cfg.MaxMergeDist); err != nil {
		return nil, err
	}
	if cfg.MinRegionGrowingCandidateSize, err = am.GetInt("minRegionGrowingCandidateSize", cfg.MinRegionGrowingCandidateSize); err != nil {
		return nil, err
	}
	if cfg.MinRegionGrowingCellsActivated, err = am.GetInt("minRegionGrowingCellsActivated", cfg.MinRegionGrowingCellsActivated); err != nil {
		return nil, err
	}
	if cfg.MinRegionPlanarityScore, err = am.GetFloat64("minRegionPlanarityScore", cfg.MinRegionPlanarityScore); err != nil {
		return nil, err
	}
	if cfg.DoRefinement, err = am.GetBool("doRefinement", cfg.DoRefinement); err != nil {
		return nil, err
	}
	if cfg.RefinementMultiplierCoeff, err = am.GetFloat64("refinementMultiplierCoeff", cfg.RefinementMultiplierCoeff); err != nil {
		return nil, err
	}
	if cfg.DepthSigmaCoeff, err = am.GetFloat64("depthSigmaCoeff", cfg.DepthSigmaCoeff); err != nil {
		return nil, err
	}
	if cfg.DepthSigmaMargin, err = am.GetFloat64("depthSigmaMargin", cfg.DepthSigmaMargin); err != nil {
		return nil, err
	}
	if cfg.MinPtsPerCell, err = am.GetInt("minPtsPerCell", cfg.MinPtsPerCell); err != nil {
		return nil, err
	}
	if cfg.DepthDiscontinuityThreshold, err = am.GetFloat64("depthDiscontinuityThreshold", cfg.DepthDiscontinuityThreshold); err != nil {
		return nil, err
	}
	if cfg.MaxNumberDepthDiscontinuity, err = am.GetInt("maxNumberDepthDiscontinuity", cfg.MaxNumberDepthDiscontinuity); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate implements the InvalidConfig checks of spec.md §7: P<=0, B<=1,
// non-finite thresholds. It aggregates every violation found via multierr,
// rather than failing fast on the first one, so a caller sees the full
// picture in one pass.
func (c *Config) Validate() error {
	var errs error
	if c.PatchSize <= 0 {
		errs = multierr.Append(errs, errors.New("patchSize must be positive"))
	}
	if c.HistogramBinsPerCoord <= 1 {
		errs = multierr.Append(errs, errors.New("histogramBinsPerCoord must be greater than 1"))
	}
	for name, v := range map[string]float64{
		"minCosAngleForMerge":         c.MinCosAngleForMerge,
		"maxMergeDist":                c.MaxMergeDist,
		"minRegionPlanarityScore":     c.MinRegionPlanarityScore,
		"refinementMultiplierCoeff":   c.RefinementMultiplierCoeff,
		"depthSigmaCoeff":             c.DepthSigmaCoeff,
		"depthSigmaMargin":            c.DepthSigmaMargin,
		"depthDiscontinuityThreshold": c.DepthDiscontinuityThreshold,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			errs = multierr.Append(errs, errors.Errorf("%s must be finite, got %v", name, v))
		}
	}
	if c.MinCosAngleForMerge < -1 || c.MinCosAngleForMerge > 1 {
		errs = multierr.Append(errs, errors.New("minCosAngleForMerge must be in [-1,1]"))
	}
	if c.MaxMergeDist < 0 {
		errs = multierr.Append(errs, errors.New("maxMergeDist cannot be negative"))
	}
	if c.MinRegionGrowingCandidateSize < 0 {
		errs = multierr.Append(errs, errors.New("minRegionGrowingCandidateSize cannot be negative"))
	}
	if c.MinRegionGrowingCellsActivated < 0 {
		errs = multierr.Append(errs, errors.New("minRegionGrowingCellsActivated cannot be negative"))
	}
	if c.MinPtsPerCell < 0 {
		errs = multierr.Append(errs, errors.New("minPtsPerCell cannot be negative"))
	}
	if c.MaxNumberDepthDiscontinuity < 0 {
		errs = multierr.Append(errs, errors.New("maxNumberDepthDiscontinuity cannot be negative"))
	}
	if errs != nil {
		return &InvalidConfigError{Reasons: splitMultierr(errs)}
	}
	return nil
}

func splitMultierr(err error) []string {
	errsList := multierr.Errors(err)
	reasons := make([]string, len(errsList))
	for i, e := range errsList {
		reasons[i] = e.Error()
	}
	return reasons
}
