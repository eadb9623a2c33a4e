package gallery

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"

	"github.com/abworrall/hdr-gallery/pkg/tonemap"
)

/* Example config file ...

images:
  - slides/image1.exr
  - slides/image2.exr
  - slides/sunset.hdr
exposure: 1.0
tonemapper: exposure
autoplay: false
autoplay_interval: 1s
output_dir: out
annotate: true
strip: true
strip_exposures: [0.25, 0.5, 1, 2, 4]

*/

type Config struct {
	Verbosity int `yaml:"verbosity"`

	Images     []string `yaml:"images"`
	Exposure   float32  `yaml:"exposure"`   // [0.1, 10]; 0 means the default, 1.0
	Tonemapper string   `yaml:"tonemapper"` // one of tonemap.Operators()

	Autoplay         bool          `yaml:"autoplay"`
	AutoplayInterval time.Duration `yaml:"autoplay_interval"`

	Workers   int `yaml:"workers"`    // render goroutines, 0 for GOMAXPROCS
	ChunkRows int `yaml:"chunk_rows"` // rows per render work unit

	OutputDir      string    `yaml:"output_dir"`
	Annotate       bool      `yaml:"annotate"` // draw caption/resolution/load time onto slides
	Strip          bool      `yaml:"strip"`    // also write an exposure preview strip per image
	StripExposures []float32 `yaml:"strip_exposures"`
	StripHeight    int       `yaml:"strip_height"`
}

func NewConfig() Config {
	return Config{
		Exposure:         tonemap.DefaultExposure,
		Tonemapper:       tonemap.OperatorExposure,
		AutoplayInterval: time.Second,
		OutputDir:        ".",
		StripExposures:   []float32{0.25, 0.5, 1, 2, 4},
		StripHeight:      160,
	}
}

func NewConfigFromYaml(b []byte) (Config, error) {
	c := NewConfig()
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, err
	}
	return c, c.Finalize()
}

func LoadConfig(filename string) (Config, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return NewConfig(), fmt.Errorf("config read %s: %w", filename, err)
	}

	c, err := NewConfigFromYaml(contents)
	if err != nil {
		return c, fmt.Errorf("config parse %s: %w", filename, err)
	}
	return c, nil
}

// LogLevel maps Verbosity onto zerolog: 0 is info, 1 debug, 2 and up trace.
func (c Config) LogLevel() zerolog.Level {
	switch {
	case c.Verbosity >= 2:
		return zerolog.TraceLevel
	case c.Verbosity == 1:
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

func (c Config) AsYaml() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("# can't marshal config yaml: %v\n", err)
	}
	return string(b)
}

// Finalize fills in defaults and does sanity checks. Call it again after
// overriding fields from the command line.
func (c *Config) Finalize() error {
	if c.Tonemapper == "" {
		c.Tonemapper = tonemap.OperatorExposure
	}
	if !tonemap.IsOperator(c.Tonemapper) {
		return fmt.Errorf("no tonemapper named '%s', want one of %s", c.Tonemapper, tonemap.ListOperators())
	}

	if c.Exposure == 0 {
		c.Exposure = tonemap.DefaultExposure
	}
	if c.Exposure < tonemap.MinExposure || c.Exposure > tonemap.MaxExposure {
		return fmt.Errorf("exposure %v out of range [%v, %v]", c.Exposure, tonemap.MinExposure, tonemap.MaxExposure)
	}

	if c.AutoplayInterval <= 0 {
		c.AutoplayInterval = time.Second
	}
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	if c.StripHeight <= 0 {
		c.StripHeight = 160
	}
	for _, e := range c.StripExposures {
		if !(e > 0) {
			return fmt.Errorf("strip exposure %v, want > 0", e)
		}
	}

	return nil
}
