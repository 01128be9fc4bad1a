// Package config defines the immutable configuration for scene generation.
//
// A Config is a plain value: it is built once (Default, Load, then CLI
// overrides), validated, and then passed by value into the compositor. No
// package in this module reads process-wide settings.
//
// # File Formats
//
// Load accepts YAML (.yaml, .yml) and TOML (.toml). Fields missing from the
// file keep their Default values, so a config file only needs the keys it
// changes:
//
//	total_images: 1000
//	placement:
//	  margin: 20
//	output:
//	  dir: ./synthetic
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Range is a closed numeric interval [Min, Max].
type Range struct {
	Min float64 `yaml:"min" toml:"min"`
	Max float64 `yaml:"max" toml:"max"`
}

// IntRange is a closed integer interval [Min, Max].
type IntRange struct {
	Min int `yaml:"min" toml:"min"`
	Max int `yaml:"max" toml:"max"`
}

// Config holds every tunable of the generation pipeline.
type Config struct {
	// TotalImages is the number of scenes written per run.
	TotalImages int `yaml:"total_images" toml:"total_images"`

	// MaxObjectsPerImage bounds the per-scene object count drawn from [1, Max].
	MaxObjectsPerImage int `yaml:"max_objects_per_image" toml:"max_objects_per_image"`

	// Seed feeds the per-scene random generators. Equal seeds give equal output;
	// zero picks a fresh seed for each run.
	Seed uint64 `yaml:"seed" toml:"seed"`

	// Workers is the number of scenes generated concurrently.
	Workers int `yaml:"workers" toml:"workers"`

	Input      InputConfig      `yaml:"input" toml:"input"`
	Scale      ScaleConfig      `yaml:"scale" toml:"scale"`
	Placement  PlacementConfig  `yaml:"placement" toml:"placement"`
	Transform  TransformConfig  `yaml:"transform" toml:"transform"`
	Shadow     ShadowConfig     `yaml:"shadow" toml:"shadow"`
	Occlusion  OcclusionConfig  `yaml:"occlusion" toml:"occlusion"`
	Background BackgroundConfig `yaml:"background" toml:"background"`
	Output     OutputConfig     `yaml:"output" toml:"output"`
}

// InputConfig locates the source images.
type InputConfig struct {
	ObjectsDir           string   `yaml:"objects_dir" toml:"objects_dir"`
	BackgroundsDir       string   `yaml:"backgrounds_dir" toml:"backgrounds_dir"`
	ObjectExtensions     []string `yaml:"object_extensions" toml:"object_extensions"`
	BackgroundExtensions []string `yaml:"background_extensions" toml:"background_extensions"`

	// CacheSources keeps decoded sources in memory for the whole run.
	CacheSources bool `yaml:"cache_sources" toml:"cache_sources"`
}

// ScaleConfig selects the object scale range from the background width.
// Backgrounds strictly wider than TierThreshold use Large, others Small.
type ScaleConfig struct {
	TierThreshold int   `yaml:"tier_threshold" toml:"tier_threshold"`
	Small         Range `yaml:"small" toml:"small"`
	Large         Range `yaml:"large" toml:"large"`
}

// PlacementConfig controls the collision-aware search.
type PlacementConfig struct {
	Margin      int `yaml:"margin" toml:"margin"`
	MaxAttempts int `yaml:"max_attempts" toml:"max_attempts"`
}

// TransformConfig controls the per-object geometry.
type TransformConfig struct {
	PerspectiveProbability float64 `yaml:"perspective_probability" toml:"perspective_probability"`
	PerspectiveFactor      Range   `yaml:"perspective_factor" toml:"perspective_factor"`

	// Rotation is in degrees; the upper bound is exclusive.
	Rotation Range `yaml:"rotation" toml:"rotation"`

	TrimCutouts bool `yaml:"trim_cutouts" toml:"trim_cutouts"`
}

// ShadowConfig controls the drop shadow drawn under each object.
type ShadowConfig struct {
	Probability    float64  `yaml:"probability" toml:"probability"`
	AlphaThreshold uint8    `yaml:"alpha_threshold" toml:"alpha_threshold"`
	Opacity        uint8    `yaml:"opacity" toml:"opacity"`
	Gray           uint8    `yaml:"gray" toml:"gray"`
	BlurSigma      float64  `yaml:"blur_sigma" toml:"blur_sigma"`
	Offset         IntRange `yaml:"offset" toml:"offset"`
}

// OcclusionConfig controls the final foreign-object rectangles.
type OcclusionConfig struct {
	Probability float64  `yaml:"probability" toml:"probability"`
	Count       IntRange `yaml:"count" toml:"count"`
	Size        IntRange `yaml:"size" toml:"size"`
	Alpha       IntRange `yaml:"alpha" toml:"alpha"`
}

// BackgroundConfig is the photometric augmentation applied to backgrounds.
type BackgroundConfig struct {
	BrightnessContrast BrightnessContrastConfig `yaml:"brightness_contrast" toml:"brightness_contrast"`
	Noise              NoiseConfig              `yaml:"noise" toml:"noise"`
	MotionBlur         MotionBlurConfig         `yaml:"motion_blur" toml:"motion_blur"`
	CastShadow         CastShadowConfig         `yaml:"cast_shadow" toml:"cast_shadow"`
}

// BrightnessContrastConfig jitters brightness and contrast by up to the limits.
type BrightnessContrastConfig struct {
	Probability     float64 `yaml:"probability" toml:"probability"`
	BrightnessLimit float64 `yaml:"brightness_limit" toml:"brightness_limit"`
	ContrastLimit   float64 `yaml:"contrast_limit" toml:"contrast_limit"`
}

// NoiseConfig simulates camera sensor noise.
type NoiseConfig struct {
	Probability float64 `yaml:"probability" toml:"probability"`
	ColorShift  Range   `yaml:"color_shift" toml:"color_shift"`
	Intensity   Range   `yaml:"intensity" toml:"intensity"`
}

// MotionBlurConfig blurs along a random direction. Kernel sizes are odd.
type MotionBlurConfig struct {
	Probability float64  `yaml:"probability" toml:"probability"`
	KernelSize  IntRange `yaml:"kernel_size" toml:"kernel_size"`
}

// CastShadowConfig darkens random polygons inside a region of interest.
// ROI is (x_min, y_min, x_max, y_max) as fractions of the image size.
type CastShadowConfig struct {
	Probability float64    `yaml:"probability" toml:"probability"`
	ROI         [4]float64 `yaml:"roi" toml:"roi"`
	Count       IntRange   `yaml:"count" toml:"count"`
	Vertices    int        `yaml:"vertices" toml:"vertices"`
	Darkness    float64    `yaml:"darkness" toml:"darkness"`
}

// OutputConfig controls where and how scenes are written.
type OutputConfig struct {
	Dir        string   `yaml:"dir" toml:"dir"`
	Prefix     string   `yaml:"prefix" toml:"prefix"`
	Format     string   `yaml:"format" toml:"format"`
	Quality    IntRange `yaml:"quality" toml:"quality"`
	PreviewDir string   `yaml:"preview_dir" toml:"preview_dir"`
}

// Default returns the reference configuration.
func Default() Config {
	return Config{
		TotalImages:        500,
		MaxObjectsPerImage: 4,
		Seed:               0,
		Workers:            1,
		Input: InputConfig{
			ObjectsDir:           "input_objs",
			BackgroundsDir:       "input_bgs",
			ObjectExtensions:     []string{".png"},
			BackgroundExtensions: []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"},
			CacheSources:         true,
		},
		Scale: ScaleConfig{
			TierThreshold: 1000,
			Small:         Range{Min: 0.08, Max: 0.25},
			Large:         Range{Min: 0.08, Max: 0.35},
		},
		Placement: PlacementConfig{
			Margin:      15,
			MaxAttempts: 80,
		},
		Transform: TransformConfig{
			PerspectiveProbability: 0.4,
			PerspectiveFactor:      Range{Min: 0.75, Max: 0.9},
			Rotation:               Range{Min: 0, Max: 360},
		},
		Shadow: ShadowConfig{
			Probability:    0.6,
			AlphaThreshold: 10,
			Opacity:        120,
			Gray:           0,
			BlurSigma:      18,
			Offset:         IntRange{Min: 15, Max: 50},
		},
		Occlusion: OcclusionConfig{
			Probability: 0.3,
			Count:       IntRange{Min: 1, Max: 2},
			Size:        IntRange{Min: 30, Max: 100},
			Alpha:       IntRange{Min: 40, Max: 100},
		},
		Background: BackgroundConfig{
			BrightnessContrast: BrightnessContrastConfig{
				Probability:     0.8,
				BrightnessLimit: 0.25,
				ContrastLimit:   0.25,
			},
			Noise: NoiseConfig{
				Probability: 0.4,
				ColorShift:  Range{Min: 0.01, Max: 0.05},
				Intensity:   Range{Min: 0.2, Max: 0.4},
			},
			MotionBlur: MotionBlurConfig{
				Probability: 0.3,
				KernelSize:  IntRange{Min: 3, Max: 9},
			},
			CastShadow: CastShadowConfig{
				Probability: 0.4,
				ROI:         [4]float64{0, 0.5, 1, 1},
				Count:       IntRange{Min: 1, Max: 3},
				Vertices:    6,
				Darkness:    0.5,
			},
		},
		Output: OutputConfig{
			Dir:     "output",
			Prefix:  "scene_",
			Format:  "jpg",
			Quality: IntRange{Min: 85, Max: 95},
		},
	}
}

// Load reads a YAML or TOML file over Default. The format is chosen by
// file extension.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse YAML config %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse TOML config %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config format %q (want .yaml, .yml or .toml)", filepath.Ext(path))
	}

	return cfg, nil
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	if c.TotalImages < 0 {
		return fmt.Errorf("total_images must be >= 0, got %d", c.TotalImages)
	}
	if c.MaxObjectsPerImage < 1 {
		return fmt.Errorf("max_objects_per_image must be >= 1, got %d", c.MaxObjectsPerImage)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", c.Workers)
	}
	if len(c.Input.ObjectExtensions) == 0 {
		return fmt.Errorf("input.object_extensions must not be empty")
	}

	ranges := []struct {
		name string
		r    Range
		lo   float64
		hi   float64
	}{
		{"scale.small", c.Scale.Small, 0, 1},
		{"scale.large", c.Scale.Large, 0, 1},
		{"transform.perspective_factor", c.Transform.PerspectiveFactor, 0, 1},
		{"transform.rotation", c.Transform.Rotation, 0, 360},
		{"background.noise.color_shift", c.Background.Noise.ColorShift, 0, 1},
		{"background.noise.intensity", c.Background.Noise.Intensity, 0, 1},
	}
	for _, rr := range ranges {
		if rr.r.Min > rr.r.Max || rr.r.Min < rr.lo || rr.r.Max > rr.hi {
			return fmt.Errorf("%s must satisfy %g <= min <= max <= %g, got [%g, %g]",
				rr.name, rr.lo, rr.hi, rr.r.Min, rr.r.Max)
		}
	}
	if c.Scale.Small.Min <= 0 || c.Scale.Large.Min <= 0 {
		return fmt.Errorf("scale minimums must be > 0")
	}

	intRanges := []struct {
		name string
		r    IntRange
		lo   int
	}{
		{"shadow.offset", c.Shadow.Offset, 0},
		{"occlusion.count", c.Occlusion.Count, 0},
		{"occlusion.size", c.Occlusion.Size, 1},
		{"occlusion.alpha", c.Occlusion.Alpha, 0},
		{"background.motion_blur.kernel_size", c.Background.MotionBlur.KernelSize, 1},
		{"background.cast_shadow.count", c.Background.CastShadow.Count, 0},
		{"output.quality", c.Output.Quality, 1},
	}
	for _, rr := range intRanges {
		if rr.r.Min > rr.r.Max || rr.r.Min < rr.lo {
			return fmt.Errorf("%s must satisfy %d <= min <= max, got [%d, %d]",
				rr.name, rr.lo, rr.r.Min, rr.r.Max)
		}
	}
	if c.Occlusion.Alpha.Max > 255 {
		return fmt.Errorf("occlusion.alpha max must be <= 255, got %d", c.Occlusion.Alpha.Max)
	}
	if c.Output.Quality.Max > 100 {
		return fmt.Errorf("output.quality max must be <= 100, got %d", c.Output.Quality.Max)
	}

	probs := []struct {
		name string
		p    float64
	}{
		{"transform.perspective_probability", c.Transform.PerspectiveProbability},
		{"shadow.probability", c.Shadow.Probability},
		{"occlusion.probability", c.Occlusion.Probability},
		{"background.brightness_contrast.probability", c.Background.BrightnessContrast.Probability},
		{"background.noise.probability", c.Background.Noise.Probability},
		{"background.motion_blur.probability", c.Background.MotionBlur.Probability},
		{"background.cast_shadow.probability", c.Background.CastShadow.Probability},
	}
	for _, pp := range probs {
		if pp.p < 0 || pp.p > 1 {
			return fmt.Errorf("%s must be in [0, 1], got %g", pp.name, pp.p)
		}
	}

	if c.Placement.Margin < 0 {
		return fmt.Errorf("placement.margin must be >= 0, got %d", c.Placement.Margin)
	}
	if c.Placement.MaxAttempts < 1 {
		return fmt.Errorf("placement.max_attempts must be >= 1, got %d", c.Placement.MaxAttempts)
	}
	if c.Shadow.BlurSigma < 0 {
		return fmt.Errorf("shadow.blur_sigma must be >= 0, got %g", c.Shadow.BlurSigma)
	}
	if c.Background.CastShadow.Vertices < 3 {
		return fmt.Errorf("background.cast_shadow.vertices must be >= 3, got %d", c.Background.CastShadow.Vertices)
	}
	roi := c.Background.CastShadow.ROI
	if roi[0] < 0 || roi[1] < 0 || roi[2] > 1 || roi[3] > 1 || roi[0] >= roi[2] || roi[1] >= roi[3] {
		return fmt.Errorf("background.cast_shadow.roi must be an ordered box inside [0, 1], got %v", roi)
	}

	switch strings.ToLower(c.Output.Format) {
	case "jpg", "jpeg", "png", "webp":
	default:
		return fmt.Errorf("output.format must be jpg, png or webp, got %q", c.Output.Format)
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir must not be empty")
	}

	return nil
}

// ScaleRange returns the object scale range for a background of the given width.
func (c Config) ScaleRange(bgWidth int) Range {
	if bgWidth > c.Scale.TierThreshold {
		return c.Scale.Large
	}
	return c.Scale.Small
}
