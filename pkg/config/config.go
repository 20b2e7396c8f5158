// Package config layers generator settings from defaults, a config file
// (YAML, JSON or HCL), the environment (optionally seeded from a .env file)
// and finally command-line flags.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"rfcode/pkg/compiler"
	"rfcode/pkg/rfcode"
	"rfcode/pkg/target"
)

// Config is the full set of generator settings.
type Config struct {
	PackageName string `yaml:"package" json:"package" hcl:"package,optional"`
	ClassName   string `yaml:"class" json:"class" hcl:"class,optional"`
	MainMethod  bool   `yaml:"main" json:"main" hcl:"main,optional"`
	Language    string `yaml:"language" json:"language" hcl:"language,optional"`
	InFile      string `yaml:"in_file" json:"in_file" hcl:"in_file,optional"`
	OutDir      string `yaml:"out_dir" json:"out_dir" hcl:"out_dir,optional"`
	Objective   string `yaml:"objective" json:"objective" hcl:"objective,optional"`
	Verify      bool   `yaml:"verify" json:"verify" hcl:"verify,optional"`
	LogLevel    string `yaml:"log_level" json:"log_level" hcl:"log_level,optional"`
	LogFormat   string `yaml:"log_format" json:"log_format" hcl:"log_format,optional"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		PackageName: rfcode.DefaultPackage,
		ClassName:   rfcode.DefaultClass,
		Language:    rfcode.DefaultLanguage,
		Objective:   "auto",
		LogLevel:    "info",
		LogFormat:   "text",
	}
}

// ConfigurationError is a missing or invalid setting. It is reported before
// any model is read.
type ConfigurationError struct {
	Field string
	Msg   string
	// MissingPath marks an unset input or output path, which the CLI answers
	// with usage text rather than a failure.
	MissingPath bool
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Field, e.Msg)
}

// Load overlays the file at path onto base. The format follows the
// extension: .json, .hcl, otherwise YAML. Keys absent from the file keep the
// values of base.
func Load(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, &ConfigurationError{Field: "config", Msg: fmt.Sprintf("failed to read config file: %v", err)}
	}

	cfg := base
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return base, &ConfigurationError{Field: "config", Msg: fmt.Sprintf("failed to parse JSON: %v", err)}
		}
	case ".hcl":
		file, diags := hclparse.NewParser().ParseHCL(data, path)
		if diags.HasErrors() {
			return base, &ConfigurationError{Field: "config", Msg: fmt.Sprintf("failed to parse HCL: %s", diags.Error())}
		}
		if diags := gohcl.DecodeBody(file.Body, nil, &cfg); diags.HasErrors() {
			return base, &ConfigurationError{Field: "config", Msg: fmt.Sprintf("failed to decode HCL: %s", diags.Error())}
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return base, &ConfigurationError{Field: "config", Msg: fmt.Sprintf("failed to parse YAML: %v", err)}
		}
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=value pairs from the given files (default ".env")
// into the process environment without overriding variables already set.
// Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return &ConfigurationError{Field: "env", Msg: fmt.Sprintf("failed to load %s: %v", p, err)}
		}
	}
	return nil
}

// Environment variables read by ApplyEnv.
const (
	EnvPackage   = "RFCODE_PACKAGE"
	EnvClass     = "RFCODE_CLASS"
	EnvMain      = "RFCODE_MAIN"
	EnvLanguage  = "RFCODE_LANGUAGE"
	EnvInFile    = "RFCODE_IN_FILE"
	EnvOutDir    = "RFCODE_OUT_DIR"
	EnvObjective = "RFCODE_OBJECTIVE"
	EnvConfig    = "RFCODE_CONFIG"
)

// ApplyEnv overlays environment variables found through lookup (usually
// os.LookupEnv) onto cfg.
func ApplyEnv(cfg Config, lookup func(string) (string, bool)) (Config, error) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str(EnvPackage, &cfg.PackageName)
	str(EnvClass, &cfg.ClassName)
	str(EnvLanguage, &cfg.Language)
	str(EnvInFile, &cfg.InFile)
	str(EnvOutDir, &cfg.OutDir)
	str(EnvObjective, &cfg.Objective)
	if v, ok := lookup(EnvMain); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, &ConfigurationError{Field: EnvMain, Msg: fmt.Sprintf("%q is not a boolean", v)}
		}
		cfg.MainMethod = b
	}
	return cfg, nil
}

// ValidateNames checks everything except the input and output paths.
func (c Config) ValidateNames() error {
	if !isJavaIdent(c.ClassName) {
		return &ConfigurationError{Field: "class", Msg: fmt.Sprintf("%q is not a valid class name", c.ClassName)}
	}
	if c.PackageName != "" {
		for _, part := range strings.Split(c.PackageName, ".") {
			if !isJavaIdent(part) {
				return &ConfigurationError{Field: "package", Msg: fmt.Sprintf("%q is not a valid package name", c.PackageName)}
			}
		}
	}
	if _, err := target.Lookup(c.Language); err != nil {
		return &ConfigurationError{Field: "language", Msg: err.Error()}
	}
	if _, err := compiler.ParseObjectiveHint(c.Objective); err != nil {
		return &ConfigurationError{Field: "objective", Msg: err.Error()}
	}
	return nil
}

// Validate checks a configuration for a full generate run.
func (c Config) Validate() error {
	if c.InFile == "" {
		return &ConfigurationError{Field: "inFile", Msg: "specify the tree model file with '-f [tree_file]'", MissingPath: true}
	}
	if c.OutDir == "" {
		return &ConfigurationError{Field: "outDir", Msg: "specify the output directory with '-o [output_dir]'", MissingPath: true}
	}
	return c.ValidateNames()
}

func isJavaIdent(s string) bool { return target.IsJavaIdentifier(s) }
