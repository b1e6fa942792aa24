package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/andreyvit/flatdoc"
)

// Config holds settings shared by all commands. A TOML file may set any of
// them:
//
//	indent = "    "
//	int_width = 32
//	float_width = 64
//	duplicate_keys = "overwrite"
//	db = "/var/lib/flatdoc/docs.db"
//	color = "never"
//	mmap = false
type Config struct {
	Indent        string `toml:"indent"`
	IntWidth      int    `toml:"int_width"`
	FloatWidth    int    `toml:"float_width"`
	DuplicateKeys string `toml:"duplicate_keys"`
	DB            string `toml:"db"`
	Color         string `toml:"color"`
	Mmap          bool   `toml:"mmap"`
}

func DefaultConfig() Config {
	return Config{
		Indent:        "  ",
		IntWidth:      64,
		FloatWidth:    64,
		DuplicateKeys: flatdoc.KeepFirst.String(),
		DB:            appName + ".db",
		Color:         "auto",
		Mmap:          true,
	}
}

// LoadConfigFile decodes a TOML file on top of cfg. Unknown keys are errors.
func LoadConfigFile(path string, cfg *Config) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

var colorModes = []string{"auto", "always", "never"}

func (cfg Config) Validate() error {
	if !slices.Contains(colorModes, cfg.Color) {
		return fmt.Errorf("invalid color mode %q (wanted one of %s)", cfg.Color, strings.Join(colorModes, ", "))
	}
	_, err := cfg.TreeOptions()
	return err
}

func (cfg Config) TreeOptions() (flatdoc.Options, error) {
	var opt flatdoc.Options
	var err error
	if opt.Widths.Int, err = parseWidth("int_width", cfg.IntWidth); err != nil {
		return opt, err
	}
	if opt.Widths.Float, err = parseWidth("float_width", cfg.FloatWidth); err != nil {
		return opt, err
	}
	if opt.DuplicateKeys, err = flatdoc.ParseDuplicatePolicy(cfg.DuplicateKeys); err != nil {
		return opt, err
	}
	return opt, nil
}

func parseWidth(name string, bits int) (flatdoc.Width, error) {
	switch bits {
	case 32:
		return flatdoc.Width32, nil
	case 0, 64:
		return flatdoc.Width64, nil
	default:
		return 0, fmt.Errorf("invalid %s %d (wanted 32 or 64)", name, bits)
	}
}

// loadConfig builds the effective configuration: defaults, then the config
// file, then flags the user actually set.
func (c *CLI) loadConfig(cmd *cobra.Command) error {
	cfg := DefaultConfig()
	if c.configPath != "" {
		if err := LoadConfigFile(c.configPath, &cfg); err != nil {
			return err
		}
		c.Logger.Debug("loaded config", "path", c.configPath)
	}
	flags := cmd.Flags()
	if flags.Changed("indent") {
		cfg.Indent = c.flags.Indent
	}
	if flags.Changed("int-width") {
		cfg.IntWidth = c.flags.IntWidth
	}
	if flags.Changed("float-width") {
		cfg.FloatWidth = c.flags.FloatWidth
	}
	if flags.Changed("duplicate-keys") {
		cfg.DuplicateKeys = c.flags.DuplicateKeys
	}
	if flags.Changed("color") {
		cfg.Color = c.flags.Color
	}
	if flags.Changed("mmap") {
		cfg.Mmap = c.flags.Mmap
	}
	if flags.Lookup("db") != nil && flags.Changed("db") {
		cfg.DB = c.flags.DB
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}
