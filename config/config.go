package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"

	"vispath/color"
)

const (
	EnvPrefix     = "VISPATH_"
	DefaultFolder = "selected_paths"
)

type Config struct {
	PathFile             string  `yaml:"path_file"              validate:"required_unless=GenerateEmptyNetwork true"`
	SheetName            string  `yaml:"sheet_name"`
	OutputFolder         string  `yaml:"output_folder"          validate:"required"`
	SourceColor          string  `yaml:"source_color"           validate:"required"`
	IntermediateColor    string  `yaml:"intermediate_color"     validate:"required"`
	TargetColor          string  `yaml:"target_color"           validate:"required"`
	LinkColor            string  `yaml:"link_color"             validate:"required"`
	NetworkLayout        string  `yaml:"network_layout"         validate:"oneof=hierarchical spring circular distributed"`
	EdgeWidthScale       string  `yaml:"edge_width_scale"       validate:"oneof=linear sqrt log"`
	MaxEdgeWidth         float64 `yaml:"max_edge_width"         validate:"gt=0,gtefield=MinEdgeWidth"`
	MinEdgeWidth         float64 `yaml:"min_edge_width"         validate:"gt=0"`
	ShowFigure           bool    `yaml:"show_figure"`
	GenerateEmptyNetwork bool    `yaml:"generate_empty_network"`
	PNG                  bool    `yaml:"png"`
	Trace                bool    `yaml:"trace"`
}

func Default() *Config {
	return &Config{
		OutputFolder:      DefaultFolder,
		SourceColor:       "#4A90E2",
		IntermediateColor: "#50E3C2",
		TargetColor:       "#B8E986",
		LinkColor:         "rgba(74,144,226,0.3)",
		NetworkLayout:     "hierarchical",
		EdgeWidthScale:    "sqrt",
		MaxEdgeWidth:      30,
		MinEdgeWidth:      1,
	}
}

// LoadFile overlays the YAML file at path on top of cfg. Keys missing from
// the file keep their current values.
func LoadFile(cfg *Config, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config %s: %w", path, err)
	}
	defer file.Close()
	if err := Decode(cfg, file); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func Decode(cfg *Config, r io.Reader) error {
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// LoadEnv reads envFile (when non-empty and present) into the process
// environment and then applies VISPATH_* variables to cfg.
func LoadEnv(cfg *Config, envFile string) error {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return fmt.Errorf("load env file %s: %w", envFile, err)
			}
		}
	}
	return applyEnv(cfg, os.LookupEnv)
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"PATH_FILE":          &cfg.PathFile,
		"SHEET_NAME":         &cfg.SheetName,
		"OUTPUT_FOLDER":      &cfg.OutputFolder,
		"SOURCE_COLOR":       &cfg.SourceColor,
		"INTERMEDIATE_COLOR": &cfg.IntermediateColor,
		"TARGET_COLOR":       &cfg.TargetColor,
		"LINK_COLOR":         &cfg.LinkColor,
		"NETWORK_LAYOUT":     &cfg.NetworkLayout,
		"EDGE_WIDTH_SCALE":   &cfg.EdgeWidthScale,
	}
	for key, dst := range strs {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}

	floats := map[string]*float64{
		"MAX_EDGE_WIDTH": &cfg.MaxEdgeWidth,
		"MIN_EDGE_WIDTH": &cfg.MinEdgeWidth,
	}
	for key, dst := range floats {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
			*dst = f
		}
	}

	bools := map[string]*bool{
		"SHOW_FIGURE":            &cfg.ShowFigure,
		"GENERATE_EMPTY_NETWORK": &cfg.GenerateEmptyNetwork,
		"PNG":                    &cfg.PNG,
		"TRACE":                  &cfg.Trace,
	}
	for key, dst := range bools {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
			*dst = b
		}
	}
	return nil
}

type ValidationError struct {
	Problems []string
	err      error
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Unwrap() error {
	return e.err
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		problems := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			problems = append(problems, fmt.Sprintf("%s failed %q (value %v)", fe.Field(), fe.Tag(), fe.Value()))
		}
		return &ValidationError{Problems: problems, err: err}
	}

	colors := c.Colors()
	for _, name := range ColorKeys {
		if _, err := color.Normalize(colors[name]); err != nil {
			return &ValidationError{Problems: []string{name + ": " + err.Error()}, err: err}
		}
	}
	return nil
}

var ColorKeys = []string{"source_color", "intermediate_color", "target_color", "link_color"}

func (c *Config) Colors() map[string]string {
	return map[string]string{
		"source_color":       c.SourceColor,
		"intermediate_color": c.IntermediateColor,
		"target_color":       c.TargetColor,
		"link_color":         c.LinkColor,
	}
}
