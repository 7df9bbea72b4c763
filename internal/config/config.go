// Package config はコマンドラインツールの設定を読み込みます。
//
// 値は優先度の高い順に、コマンドラインフラグ、環境変数 (LINREG_ 接頭辞)、
// 設定ファイル (--config)、デフォルト値から取得されます。
package config

import (
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/YuminosukeSato/linreg/core/model"
	"github.com/YuminosukeSato/linreg/dataset"
	"github.com/YuminosukeSato/linreg/linear"
	"github.com/YuminosukeSato/linreg/pkg/errors"
	"github.com/YuminosukeSato/linreg/pkg/log"
)

// EnvPrefix is prepended to every key when reading environment variables,
// e.g. LINREG_TARGET.
const EnvPrefix = "LINREG"

// Input formats.
const (
	FormatCSV = "csv"
	FormatNpy = "npy"
)

// Config は1回の学習の設定です。
type Config struct {
	Target      string   `mapstructure:"target"`
	Predictors  []string `mapstructure:"predictors"`
	IncludeAll  bool     `mapstructure:"include_all"`
	CalcError   bool     `mapstructure:"calc_error"`
	Compensated bool     `mapstructure:"compensated"`

	Input   string   `mapstructure:"input"`
	Format  string   `mapstructure:"format"`
	Columns []string `mapstructure:"columns"` // npy のカラム名
	Comma   string   `mapstructure:"csv_comma"`
	Missing []string `mapstructure:"csv_missing"`
	RowKey  string   `mapstructure:"row_key"`

	Output string `mapstructure:"output"`
	Codec  string `mapstructure:"codec"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// flag name -> viper key
var flagKeys = map[string]string{
	"target":      "target",
	"predictors":  "predictors",
	"include-all": "include_all",
	"calc-error":  "calc_error",
	"compensated": "compensated",
	"input":       "input",
	"format":      "format",
	"columns":     "columns",
	"comma":       "csv_comma",
	"missing":     "csv_missing",
	"row-key":     "row_key",
	"output":      "output",
	"codec":       "codec",
	"log-level":   "log_level",
	"log-format":  "log_format",
}

// NewFlagSet defines the command line flags.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", "", "configuration file (yaml, json or toml)")
	fs.StringP("target", "t", "", "target column")
	fs.StringSliceP("predictors", "p", nil, "predictor columns")
	fs.Bool("include-all", false, "use every numeric column except the target as predictor")
	fs.Bool("calc-error", false, "compute the sum of squared errors on the training data")
	fs.Bool("compensated", false, "use compensated summation for the accumulated sums")
	fs.StringP("input", "i", "", "input file; may also be given as the first argument")
	fs.String("format", "", "input format: csv or npy (default: from the file extension)")
	fs.StringSlice("columns", nil, "column names for npy input")
	fs.String("comma", ",", "csv field delimiter")
	fs.StringSlice("missing", dataset.DefaultMissingMarkers, "csv cells read as missing")
	fs.String("row-key", "", "csv column used as row key")
	fs.StringP("output", "o", "", "save the learned model to this file")
	fs.String("codec", model.CodecZstd.String(), "model compression: none, gzip, zstd, s2 or lz4")
	fs.String("log-level", "info", "log level: debug, info, warn or error")
	fs.String("log-format", log.FormatConsole, "log format: json, console or slog")
	return fs
}

// Load parses args and merges them with the environment and the optional
// configuration file. The result is validated.
func Load(args []string) (*Config, error) {
	fs := NewFlagSet("linreg")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return FromFlags(fs)
}

// FromFlags builds the configuration from an already parsed flag set.
func FromFlags(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	for name, key := range flagKeys {
		if f := fs.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, errors.Wrapf(err, "bind flag %s", name)
			}
		}
	}

	if f := fs.Lookup("config"); f != nil && f.Value.String() != "" {
		v.SetConfigFile(f.Value.String())
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", f.Value.String())
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if cfg.Input == "" && fs.NArg() > 0 {
		cfg.Input = fs.Arg(0)
	}
	if cfg.Format == "" {
		cfg.Format = formatOf(cfg.Input)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func formatOf(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".npy") {
		return FormatNpy
	}
	return FormatCSV
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Input == "" {
		return errors.NewValidationError("input", "no input file given", c.Input)
	}
	if err := c.Design().Validate(); err != nil {
		return err
	}
	switch c.Format {
	case FormatCSV:
		if utf8.RuneCountInString(c.Comma) != 1 {
			return errors.NewValidationError("csv_comma", "delimiter must be a single character", c.Comma)
		}
	case FormatNpy:
		if len(c.Columns) == 0 {
			return errors.NewValidationError("columns", "npy input needs column names", c.Columns)
		}
	default:
		return errors.NewValidationError("format", "unknown input format", c.Format)
	}
	if _, err := model.ParseCodec(c.Codec); err != nil {
		return err
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.NewValidationError("log_level", err.Error(), c.LogLevel)
	}
	return nil
}

// Design returns the column selection.
func (c *Config) Design() linear.DesignSpec {
	return linear.DesignSpec{
		Target:     c.Target,
		Predictors: c.Predictors,
		IncludeAll: c.IncludeAll,
	}
}

// LearnerOptions returns the learner options selected by the configuration.
func (c *Config) LearnerOptions() []linear.Option {
	return []linear.Option{
		linear.WithComputeError(c.CalcError),
		linear.WithCompensatedSummation(c.Compensated),
	}
}

// CodecType returns the parsed model compression codec.
func (c *Config) CodecType() model.CodecType {
	codec, err := model.ParseCodec(c.Codec)
	if err != nil {
		return model.CodecZstd
	}
	return codec
}

// CSVOptions returns the reader options for csv input.
func (c *Config) CSVOptions() []dataset.CSVOption {
	opts := []dataset.CSVOption{dataset.WithMissingMarkers(c.Missing...)}
	if r, _ := utf8.DecodeRuneInString(c.Comma); r != utf8.RuneError {
		opts = append(opts, dataset.WithComma(r))
	}
	if c.RowKey != "" {
		opts = append(opts, dataset.WithRowKeyColumn(c.RowKey))
	}
	return opts
}

// OpenSource opens the input as a row source. csv files are streamed from
// disk; npy files are loaded into memory.
func (c *Config) OpenSource() (dataset.Source, error) {
	if c.Format == FormatNpy {
		tbl, err := dataset.ReadNpyFile(c.Input, c.Columns)
		if err != nil {
			return nil, err
		}
		return tbl, nil
	}
	f, err := dataset.OpenCSV(c.Input, c.CSVOptions()...)
	if err != nil {
		return nil, err
	}
	return f, nil
}
