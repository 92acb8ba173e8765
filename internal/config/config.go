package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/quickeda-cli/internal/analysis"
	apperrors "github.com/KaramelBytes/quickeda-cli/internal/errors"
	"github.com/KaramelBytes/quickeda-cli/internal/render"
	"github.com/KaramelBytes/quickeda-cli/internal/viz"
)

// EnvPrefix prefixes environment overrides, e.g. QUICKEDA_BACKEND.
const EnvPrefix = "QUICKEDA"

// Global configuration structure.
type Global struct {
	Backend          string  `mapstructure:"backend" yaml:"backend"`
	Format           string  `mapstructure:"format" yaml:"format"`
	SortBy           string  `mapstructure:"sort_by" yaml:"sort_by"`
	TopK             int     `mapstructure:"top_k" yaml:"top_k"`
	OutlierThreshold float64 `mapstructure:"outlier_threshold" yaml:"outlier_threshold"`
	Alpha            float64 `mapstructure:"alpha" yaml:"alpha"`
	// Multivariate method; empty picks full for a numeric target, vif otherwise.
	Method      string `mapstructure:"method" yaml:"method"`
	Direction   string `mapstructure:"stepwise_direction" yaml:"stepwise_direction"`
	Criterion   string `mapstructure:"criterion" yaml:"criterion"`
	MinFeatures int    `mapstructure:"min_features" yaml:"min_features"`

	// Input
	MaxRows   int    `mapstructure:"max_rows" yaml:"max_rows"`
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	SQLDSN    string `mapstructure:"sql_dsn" yaml:"sql_dsn"`

	// Output
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
	PlotDir   string `mapstructure:"plot_dir" yaml:"plot_dir"`
}

// Keys lists the settable configuration keys.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Dir returns ~/.quickeda.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".quickeda"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.quickeda/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("backend", viz.Default)
	v.SetDefault("format", render.Markdown)
	v.SetDefault("sort_by", "")
	v.SetDefault("top_k", 0)
	v.SetDefault("outlier_threshold", 3.5)
	v.SetDefault("alpha", analysis.DefaultAlpha)
	v.SetDefault("method", "")
	v.SetDefault("stepwise_direction", analysis.Forward)
	v.SetDefault("criterion", analysis.CriterionAIC)
	v.SetDefault("min_features", 1)
	v.SetDefault("max_rows", 100000)
	v.SetDefault("delimiter", "")
	v.SetDefault("sql_dsn", "")
	v.SetDefault("output_dir", "")
	v.SetDefault("plot_dir", "")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// The file is optional; a present but malformed one is an error.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects values the analyzers would refuse, so a bad file or
// environment variable fails at startup rather than mid-run.
func (c *Global) Validate() error {
	for _, k := range Keys() {
		if err := setters[k](&Global{}, c.get(k)); err != nil {
			return err
		}
	}
	return nil
}

// Set parses and validates one key, then stores it.
func (c *Global) Set(key, value string) error {
	set, ok := setters[key]
	if !ok {
		return apperrors.Configuration("key", key, Keys())
	}
	return set(c, strings.TrimSpace(value))
}

// Get returns the string form of one key.
func (c *Global) Get(key string) (string, bool) {
	if _, ok := setters[key]; !ok {
		return "", false
	}
	return c.get(key), true
}

func (c *Global) get(key string) string {
	switch key {
	case "backend":
		return c.Backend
	case "format":
		return c.Format
	case "sort_by":
		return c.SortBy
	case "top_k":
		return strconv.Itoa(c.TopK)
	case "outlier_threshold":
		return strconv.FormatFloat(c.OutlierThreshold, 'g', -1, 64)
	case "alpha":
		return strconv.FormatFloat(c.Alpha, 'g', -1, 64)
	case "method":
		return c.Method
	case "stepwise_direction":
		return c.Direction
	case "criterion":
		return c.Criterion
	case "min_features":
		return strconv.Itoa(c.MinFeatures)
	case "max_rows":
		return strconv.Itoa(c.MaxRows)
	case "delimiter":
		return c.Delimiter
	case "sql_dsn":
		return c.SQLDSN
	case "output_dir":
		return c.OutputDir
	case "plot_dir":
		return c.PlotDir
	}
	return ""
}

// DelimiterRune returns the configured delimiter, or 0 to auto-detect.
func (c *Global) DelimiterRune() rune {
	switch c.Delimiter {
	case "", "auto":
		return 0
	case "tab", `\t`:
		return '\t'
	}
	return []rune(c.Delimiter)[0]
}

var setters = map[string]func(c *Global, v string) error{
	"backend": func(c *Global, v string) error {
		v = strings.ToLower(v)
		if err := oneOf("backend", v, viz.NewSelector().Names()); err != nil {
			return err
		}
		c.Backend = v
		return nil
	},
	"format": func(c *Global, v string) error {
		v = strings.ToLower(v)
		if err := oneOf("format", v, render.Formats); err != nil {
			return err
		}
		c.Format = v
		return nil
	},
	"sort_by": func(c *Global, v string) error {
		if v != "" {
			if err := oneOf("sort_by", v, analysis.NumericStats); err != nil {
				return err
			}
		}
		c.SortBy = v
		return nil
	},
	"top_k": intSetter("top_k", 0, func(c *Global, i int) { c.TopK = i }),
	"outlier_threshold": func(c *Global, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return apperrors.Configuration("outlier_threshold", v, []string{"positive number"})
		}
		c.OutlierThreshold = f
		return nil
	},
	"alpha": func(c *Global, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 || f >= 1 {
			return apperrors.Configuration("alpha", v, []string{"number in (0, 1)"})
		}
		c.Alpha = f
		return nil
	},
	"method": func(c *Global, v string) error {
		v = strings.ToLower(v)
		if v != "" {
			if err := oneOf("method", v, []string{analysis.MethodVIF, analysis.MethodStepwise, analysis.MethodFull}); err != nil {
				return err
			}
		}
		c.Method = v
		return nil
	},
	"stepwise_direction": func(c *Global, v string) error {
		v = strings.ToLower(v)
		if err := oneOf("stepwise_direction", v, []string{analysis.Forward, analysis.Backward}); err != nil {
			return err
		}
		c.Direction = v
		return nil
	},
	"criterion": func(c *Global, v string) error {
		v = strings.ToLower(v)
		if err := oneOf("criterion", v, []string{analysis.CriterionAIC, analysis.CriterionBIC, analysis.CriterionPValue}); err != nil {
			return err
		}
		c.Criterion = v
		return nil
	},
	"min_features": intSetter("min_features", 0, func(c *Global, i int) { c.MinFeatures = i }),
	"max_rows":     intSetter("max_rows", 0, func(c *Global, i int) { c.MaxRows = i }),
	"delimiter": func(c *Global, v string) error {
		c.Delimiter = v
		return nil
	},
	"sql_dsn": func(c *Global, v string) error {
		c.SQLDSN = v
		return nil
	},
	"output_dir": func(c *Global, v string) error {
		c.OutputDir = v
		return nil
	},
	"plot_dir": func(c *Global, v string) error {
		c.PlotDir = v
		return nil
	},
}

func intSetter(key string, min int, store func(*Global, int)) func(*Global, string) error {
	return func(c *Global, v string) error {
		i, err := strconv.Atoi(v)
		if err != nil || i < min {
			return apperrors.Configuration(key, v, []string{fmt.Sprintf("integer >= %d", min)})
		}
		store(c, i)
		return nil
	}
}

func oneOf(key, v string, allowed []string) error {
	for _, a := range allowed {
		if v == a {
			return nil
		}
	}
	return apperrors.Configuration(key, v, allowed)
}
