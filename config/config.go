// Package config handles druta.toml project configuration.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/fxamacker/cbor/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/druta/errors"
	"github.com/wippyai/druta/transform"
)

// FileName is the configuration file looked up by FindAndLoad.
const FileName = "druta.toml"

// Output formats accepted in [output] format.
const (
	FormatJSON   = "json"
	FormatYAML   = "yaml"
	FormatCBOR   = "cbor"
	FormatTree   = "tree"
	FormatSource = "source"
	FormatAll    = "all"
)

// Config represents a druta.toml project configuration.
type Config struct {
	Convention Convention `toml:"convention"`
	Output     Output     `toml:"output"`
	Log        Log        `toml:"log"`
	Cache      Cache      `toml:"cache"`

	// Path is the file the configuration was loaded from, empty for defaults.
	Path string `toml:"-"`
}

// Convention selects which calls are treated as asynchronous.
type Convention struct {
	Prefixes []string `toml:"prefixes"`
	Markers  []string `toml:"markers"`
	// Pattern is an optional regular expression matched against callee
	// and argument names.
	Pattern string `toml:"pattern"`
}

// Output configures generated names and the default output format.
type Output struct {
	Locals      string `toml:"locals"`
	TempPrefix  string `toml:"temp_prefix"`
	ReturnValue string `toml:"return_value"`
	Format      string `toml:"format"`
}

// Log configures the zap logger built by the command line tool.
type Log struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

// Cache configures the compile cache. An empty path disables it.
type Cache struct {
	Path string `toml:"path"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if len(c.Convention.Prefixes) == 0 && len(c.Convention.Markers) == 0 && c.Convention.Pattern == "" {
		c.Convention.Prefixes = []string{transform.DefaultPrefix}
		c.Convention.Markers = append([]string(nil), transform.DefaultMarkers...)
	}
	if c.Output.Locals == "" {
		c.Output.Locals = transform.DefaultLocals
	}
	if c.Output.TempPrefix == "" {
		c.Output.TempPrefix = transform.DefaultTempPrefix
	}
	if c.Output.ReturnValue == "" {
		c.Output.ReturnValue = transform.DefaultReturnValue
	}
	if c.Output.Format == "" {
		c.Output.Format = FormatJSON
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate reports settings that cannot be used.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case FormatJSON, FormatYAML, FormatCBOR, FormatTree, FormatSource, FormatAll:
	default:
		return errors.New(errors.PhaseConfig, errors.KindInvalidData).
			Path("output", "format").
			Value(c.Output.Format).
			Detail("unknown output format").
			Build()
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return errors.New(errors.PhaseConfig, errors.KindInvalidData).
			Path("log", "level").
			Value(c.Log.Level).
			Cause(err).
			Build()
	}
	if c.Convention.Pattern != "" {
		if _, err := transform.NewRegexpConvention(c.Convention.Pattern); err != nil {
			return errors.New(errors.PhaseConfig, errors.KindInvalidData).
				Path("convention", "pattern").
				Value(c.Convention.Pattern).
				Cause(err).
				Build()
		}
	}
	return nil
}

// Load parses the configuration file at path and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindNotFound, err, "cannot read "+path)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if c.Path, err = filepath.Abs(path); err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "cannot resolve "+path)
	}
	return c, nil
}

// Parse decodes TOML configuration data and applies defaults.
func Parse(data []byte) (*Config, error) {
	var c Config
	md, err := toml.Decode(string(data), &c)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindDecode, err, "parse configuration")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.PhaseConfig, errors.KindInvalidData).
			Path(undecoded[0].String()).
			Detail("unknown configuration key").
			Build()
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// FindAndLoad walks up from startDir to find a druta.toml file, then
// loads it. Returns nil if no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "cannot resolve "+startDir)
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// BuildConvention assembles the configured conventions. Prefixes,
// markers and the pattern are combined with OR.
func (c *Config) BuildConvention() (transform.Convention, error) {
	var conv transform.CompositeConvention
	if len(c.Convention.Prefixes) > 0 {
		conv = append(conv, transform.NewPrefixConvention(c.Convention.Prefixes...))
	}
	if len(c.Convention.Markers) > 0 {
		conv = append(conv, transform.NewMarkerConvention(c.Convention.Markers...))
	}
	if c.Convention.Pattern != "" {
		re, err := transform.NewRegexpConvention(c.Convention.Pattern)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "convention pattern")
		}
		conv = append(conv, re)
	}
	return conv, nil
}

// TransformConfig converts the configuration into transform settings.
func (c *Config) TransformConfig() (transform.Config, error) {
	conv, err := c.BuildConvention()
	if err != nil {
		return transform.Config{}, err
	}
	return transform.Config{
		Convention:  conv,
		LocalsName:  c.Output.Locals,
		TempPrefix:  c.Output.TempPrefix,
		ReturnValue: c.Output.ReturnValue,
	}, nil
}

// BuildLogger creates the logger described by [log].
func (c *Config) BuildLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Log.Level)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "log level")
	}
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}

// fingerprinted lists the settings that change compiler output.
type fingerprinted struct {
	Prefixes    []string `cbor:"1,keyasint"`
	Markers     []string `cbor:"2,keyasint"`
	Pattern     string   `cbor:"3,keyasint"`
	Locals      string   `cbor:"4,keyasint"`
	TempPrefix  string   `cbor:"5,keyasint"`
	ReturnValue string   `cbor:"6,keyasint"`
}

var fingerprintMode cbor.EncMode

func init() {
	var err error
	fingerprintMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic("config: cbor encoding mode: " + err.Error())
	}
}

// Fingerprint returns a stable hex digest of every setting that affects
// compiled output. Logging and cache settings are excluded.
func (c *Config) Fingerprint() string {
	data, err := fingerprintMode.Marshal(fingerprinted{
		Prefixes:    c.Convention.Prefixes,
		Markers:     c.Convention.Markers,
		Pattern:     c.Convention.Pattern,
		Locals:      c.Output.Locals,
		TempPrefix:  c.Output.TempPrefix,
		ReturnValue: c.Output.ReturnValue,
	})
	if err != nil {
		// A struct of strings always encodes.
		panic("config: fingerprint: " + err.Error())
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
