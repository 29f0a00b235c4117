package detection

import "github.com/pkg/errors"

// Config holds the tunables for line evidence extraction, merging,
// classification and the contour fallback.
type Config struct {
	// QuantizeBands is the number of gray levels the lightness is reduced to
	// before thresholding. Values below 2 disable quantization.
	QuantizeBands int `yaml:"quantize_bands"`

	// DilateRadius grows bright strokes before median smoothing so 1-px
	// lines survive it. Zero disables dilation.
	DilateRadius float64 `yaml:"dilate_radius"`

	// MedianRadius is the median filter radius; 1 is a 3x3 window.
	MedianRadius float64 `yaml:"median_radius"`

	// BaseThreshold binarizes images whose histogram is too flat for Otsu.
	BaseThreshold uint8 `yaml:"base_threshold"`

	// MinContourPixels drops mask components smaller than this before edge
	// detection.
	MinContourPixels int `yaml:"min_contour_pixels"`

	// CannyLow and CannyHigh are the hysteresis thresholds (0-255).
	CannyLow  int `yaml:"canny_low"`
	CannyHigh int `yaml:"canny_high"`

	// HoughThreshold is the accumulator vote count needed before a line is
	// traced.
	HoughThreshold int `yaml:"hough_threshold"`

	// MinLineLength is the shortest segment the transform reports, in pixels.
	MinLineLength float64 `yaml:"min_line_length"`

	// MaxLineGap is the largest run of missing pixels bridged while tracing.
	MaxLineGap int `yaml:"max_line_gap"`

	// MaxSegments caps the number of raw segments per image.
	MaxSegments int `yaml:"max_segments"`

	// Seed fixes the point visiting order of the probabilistic transform.
	Seed int64 `yaml:"seed"`

	// MergeTolerance is the perpendicular distance (pixels) within which
	// segments are fused.
	MergeTolerance float64 `yaml:"merge_tolerance"`

	// MergeCosine is the minimum |cos| between merged segment directions.
	MergeCosine float64 `yaml:"merge_cosine"`

	// AngleBucket is the rounding granularity of line angles, in degrees.
	AngleBucket float64 `yaml:"angle_bucket"`

	// AngleThreshold splits horizontal (|angle| below) from vertical lines.
	AngleThreshold float64 `yaml:"angle_threshold"`

	// MaxLinesPerSide bounds the lines kept per orientation.
	MaxLinesPerSide int `yaml:"max_lines_per_side"`

	// DominantBuckets keeps only horizontal lines in the N most common angle
	// buckets. Zero disables the filter.
	DominantBuckets int `yaml:"dominant_buckets"`

	// MaxContourCoverage ignores contour fallback components whose bounding
	// box covers at least this fraction of the region.
	MaxContourCoverage float64 `yaml:"max_contour_coverage"`
}

// DefaultConfig returns the tunables used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		QuantizeBands:      8,
		DilateRadius:       1,
		MedianRadius:       1,
		BaseThreshold:      155,
		MinContourPixels:   10,
		CannyLow:           50,
		CannyHigh:          150,
		HoughThreshold:     20,
		MinLineLength:      20,
		MaxLineGap:         5,
		MaxSegments:        200,
		Seed:               1,
		MergeTolerance:     8,
		MergeCosine:        0.99,
		AngleBucket:        5,
		AngleThreshold:     45,
		MaxLinesPerSide:    60,
		DominantBuckets:    0,
		MaxContourCoverage: 0.98,
	}
}

// Validate rejects settings that would make extraction meaningless.
func (c Config) Validate() error {
	switch {
	case c.DilateRadius < 0 || c.MedianRadius < 0:
		return errors.Errorf("dilate_radius and median_radius must be >= 0, got %v/%v", c.DilateRadius, c.MedianRadius)
	case c.HoughThreshold < 1:
		return errors.Errorf("hough_threshold must be >= 1, got %d", c.HoughThreshold)
	case c.MinLineLength < 1:
		return errors.Errorf("min_line_length must be >= 1, got %v", c.MinLineLength)
	case c.MaxLineGap < 0:
		return errors.Errorf("max_line_gap must be >= 0, got %d", c.MaxLineGap)
	case c.MergeTolerance < 0:
		return errors.Errorf("merge_tolerance must be >= 0, got %v", c.MergeTolerance)
	case c.MergeCosine <= 0 || c.MergeCosine > 1:
		return errors.Errorf("merge_cosine must be in (0, 1], got %v", c.MergeCosine)
	case c.AngleBucket <= 0:
		return errors.Errorf("angle_bucket must be > 0, got %v", c.AngleBucket)
	case c.AngleThreshold <= 0 || c.AngleThreshold >= 90:
		return errors.Errorf("angle_threshold must be in (0, 90), got %v", c.AngleThreshold)
	case c.MaxLinesPerSide < 1:
		return errors.Errorf("max_lines_per_side must be >= 1, got %d", c.MaxLinesPerSide)
	case c.CannyLow < 0 || c.CannyHigh < c.CannyLow:
		return errors.Errorf("canny thresholds must satisfy 0 <= low <= high, got %d/%d", c.CannyLow, c.CannyHigh)
	case c.MaxContourCoverage <= 0 || c.MaxContourCoverage > 1:
		return errors.Errorf("max_contour_coverage must be in (0, 1], got %v", c.MaxContourCoverage)
	}
	return nil
}
