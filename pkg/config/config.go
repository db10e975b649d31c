// Package config loads build settings from a TOML or YAML file.
//
// Every field has a default (see [Default]), so a file only needs the keys it
// changes. Unknown keys are rejected, and the decoded values are checked with
// validator struct tags.
//
//	walking_speed_kmh = 4.5
//	stop_cutoff_km = 0.4
//
//	[columns.stops]
//	name = "Naam"
//
//	[cache]
//	redis_addr = "localhost:6379"
package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/transitnet/pkg/errors"
	"github.com/matzehuels/transitnet/pkg/geo"
	"github.com/matzehuels/transitnet/pkg/tables"
)

// DefaultTTL is how long cached proximity results stay valid.
const DefaultTTL = 7 * 24 * time.Hour

// SearchNames are the file names [Load] looks for when given no path.
var SearchNames = []string{"transitnet.toml", "transitnet.yaml", "transitnet.yml"}

// Config holds every tunable of a build.
type Config struct {
	WalkingSpeedKMH   float64 `toml:"walking_speed_kmh" yaml:"walking_speed_kmh" validate:"gt=0"`
	StopCutoffKM      float64 `toml:"stop_cutoff_km" yaml:"stop_cutoff_km" validate:"gt=0"`
	DemandCutoffKM    float64 `toml:"demand_cutoff_km" yaml:"demand_cutoff_km" validate:"gt=0"`
	MaxDemandCutoffKM float64 `toml:"max_demand_cutoff_km" yaml:"max_demand_cutoff_km" validate:"gtefield=DemandCutoffKM"`
	NodeIDStart       int     `toml:"node_id_start" yaml:"node_id_start" validate:"gte=0"`
	ArcIDStart        int     `toml:"arc_id_start" yaml:"arc_id_start" validate:"gte=0"`
	Workers           int     `toml:"workers" yaml:"workers" validate:"gte=0"`

	Columns tables.Columns `toml:"columns" yaml:"columns"`
	Cache   Cache          `toml:"cache" yaml:"cache"`
}

// Cache configures where proximity results are cached.
type Cache struct {
	Disabled bool `toml:"disabled" yaml:"disabled"`
	// Dir is the file cache directory; empty means the user cache directory.
	Dir string `toml:"dir" yaml:"dir"`
	// RedisAddr selects the Redis backend when set.
	RedisAddr string        `toml:"redis_addr" yaml:"redis_addr" validate:"omitempty,hostname_port"`
	TTL       time.Duration `toml:"ttl" yaml:"ttl" validate:"gte=0"`
}

// Default returns the reference configuration.
func Default() Config {
	return Config{
		WalkingSpeedKMH:   4,
		StopCutoffKM:      0.5,
		DemandCutoffKM:    0.5,
		MaxDemandCutoffKM: 64,
		Columns:           tables.DefaultColumns(),
		Cache:             Cache{TTL: DefaultTTL},
	}
}

// Load reads the configuration file at path over the defaults. With an
// empty path it tries [SearchNames] in the working directory and falls back
// to the defaults when none exists.
func Load(path string) (Config, error) {
	if path == "" {
		for _, name := range SearchNames {
			if _, err := os.Stat(name); err == nil {
				path = name
				break
			}
		}
		if path == "" {
			return Default(), nil
		}
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Config{}, errors.New(errors.ErrCodeFileNotFound, "config %s does not exist", path)
	}
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", path)
	}
	return cfg, nil
}

// Parse decodes data in the format named by ext (".toml", ".yaml" or
// ".yml") over the defaults and validates the result.
func Parse(data []byte, ext string) (Config, error) {
	cfg := Default()
	switch strings.ToLower(ext) {
	case ".toml":
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return Config{}, err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("unknown key %q", undecoded[0].String())
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !stderrors.Is(err, io.EOF) {
			return Config{}, err
		}
	default:
		return Config{}, fmt.Errorf("unsupported config format %q", ext)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks value ranges and required column names.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s (got %v)", field, fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s (got %v)", field, fe.Tag(), fe.Value()))
		}
	}
	return stderrors.New(strings.Join(msgs, "; "))
}

// WalkFactor returns minutes per km at the configured walking speed.
func (c Config) WalkFactor() float64 {
	return geo.WalkFactor(c.WalkingSpeedKMH)
}
