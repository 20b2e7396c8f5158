// Package cli is the rfcode command line: flag parsing, configuration
// layering and the generate and verify commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"rfcode/pkg/compiler"
	"rfcode/pkg/config"
	"rfcode/pkg/ctxlog"
	"rfcode/pkg/rfcode"
	"rfcode/pkg/utils"
)

// ExitError is an error that carries the process exit code.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// errUsage marks a run that already printed usage and should exit cleanly.
var errUsage = errors.New("usage printed")

// flags holds the raw flag values. Only flags the user actually set are
// applied on top of the file and environment layers.
type flags struct {
	pkg       string
	class     string
	main      bool
	language  string
	inFile    string
	outDir    string
	objective string
	verify    bool
	cfgFile   string
	logLevel  string
	logFormat string
}

// Run executes the command line in args. It returns nil on success and when
// only usage was printed, and an *ExitError otherwise.
func Run(stdout, stderr io.Writer, args []string) error {
	cmd := NewRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	switch {
	case err == nil, errors.Is(err, errUsage):
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	return &ExitError{Code: 1, Message: "error: " + err.Error()}
}

// NewRootCmd builds the command tree. Running the root command is the same as
// running generate.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	fl := &flags{}
	root := &cobra.Command{
		Use:   "rfcode",
		Short: "Generate source code from a random forest model dump",
		Long: `rfcode turns the text dump of a trained random forest into a standalone
class that reproduces its predictions without the training runtime.

Settings are layered: built-in defaults, then the --config file (or
RFCODE_CONFIG), then RFCODE_* environment variables (a .env file in the
working directory is loaded first), then command-line flags.

Example:
  rfcode -f model.txt -o out -p com.acme.model -c Iris -m`,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, fl, stdout)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		fmt.Fprintln(stdout, err)
		_ = c.Usage()
		return errUsage
	})

	pf := root.PersistentFlags()
	pf.StringVarP(&fl.inFile, "inFile", "f", "", "path to the tree model file")
	pf.StringVar(&fl.objective, "objective", "auto", "prediction kind: auto, classification or regression")
	pf.StringVar(&fl.cfgFile, "config", "", "config file (.yaml, .json or .hcl); can also use "+config.EnvConfig)
	pf.StringVar(&fl.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	pf.StringVar(&fl.logFormat, "log-format", "text", "log format: text or json")

	addGenerateFlags(root, fl)

	gen := &cobra.Command{
		Use:   "generate",
		Short: "Generate the source file (default command)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, fl, stdout)
		},
	}
	addGenerateFlags(gen, fl)

	ver := &cobra.Command{
		Use:   "verify",
		Short: "Check the compiled decision logic against the parsed model",
		Long: `verify parses the model, compiles every tree to a CEL expression and
evaluates it on generated records, comparing each tree outcome and
the aggregated prediction with a direct walk of the parsed trees.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVerify(cmd, fl, stdout)
		},
	}

	root.AddCommand(gen, ver)
	return root
}

func addGenerateFlags(cmd *cobra.Command, fl *flags) {
	f := cmd.Flags()
	f.StringVarP(&fl.pkg, "package", "p", rfcode.DefaultPackage, "package of the generated class")
	f.StringVarP(&fl.class, "class", "c", rfcode.DefaultClass, "name of the generated class")
	f.BoolVarP(&fl.main, "main", "m", false, "generate a main method running the model sample")
	f.StringVarP(&fl.language, "language", "l", rfcode.DefaultLanguage, "target language")
	f.StringVarP(&fl.outDir, "outDir", "o", "", "output directory")
	f.BoolVar(&fl.verify, "verify", false, "cross-check the compiled trees before writing")
}

// resolve layers defaults, config file, environment and set flags.
func resolve(cmd *cobra.Command, fl *flags) (config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return config.Config{}, err
	}

	cfg := config.Default()
	path := fl.cfgFile
	if path == "" {
		path = os.Getenv(config.EnvConfig)
	}
	if path != "" {
		var err error
		if cfg, err = config.Load(path, cfg); err != nil {
			return cfg, err
		}
	}

	cfg, err := config.ApplyEnv(cfg, os.LookupEnv)
	if err != nil {
		return cfg, err
	}

	set := cmd.Flags().Changed
	if set("package") {
		cfg.PackageName = fl.pkg
	}
	if set("class") {
		cfg.ClassName = fl.class
	}
	if set("main") {
		cfg.MainMethod = fl.main
	}
	if set("language") {
		cfg.Language = fl.language
	}
	if set("inFile") {
		cfg.InFile = fl.inFile
	}
	if set("outDir") {
		cfg.OutDir = fl.outDir
	}
	if set("objective") {
		cfg.Objective = fl.objective
	}
	if set("verify") {
		cfg.Verify = fl.verify
	}
	if set("log-level") {
		cfg.LogLevel = fl.logLevel
	}
	if set("log-format") {
		cfg.LogFormat = fl.logFormat
	}
	return cfg, nil
}

// setup resolves the configuration and builds the logging context.
func setup(cmd *cobra.Command, fl *flags) (context.Context, config.Config, error) {
	cfg, err := resolve(cmd, fl)
	if err != nil {
		return nil, cfg, err
	}
	level, ok := ctxlog.ParseLevel(cfg.LogLevel)
	if !ok {
		return nil, cfg, &config.ConfigurationError{Field: "log-level", Msg: fmt.Sprintf("%q: must be debug, info, warn or error", cfg.LogLevel)}
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, cfg, &config.ConfigurationError{Field: "log-format", Msg: fmt.Sprintf("%q: must be text or json", cfg.LogFormat)}
	}
	logger := ctxlog.New(cmd.ErrOrStderr(), cfg.LogFormat, level)
	ctx := ctxlog.WithLogger(cmd.Context(), logger)
	logger.Debug("Configuration resolved.", "config", cfg)
	return ctx, cfg, nil
}

// usageOnMissingPath prints the hint on stderr and usage on stdout for an
// unset path and turns the error into a clean exit.
func usageOnMissingPath(cmd *cobra.Command, err error) error {
	var cerr *config.ConfigurationError
	if errors.As(err, &cerr) && cerr.MissingPath {
		fmt.Fprintln(cmd.ErrOrStderr(), cerr.Msg)
		_ = cmd.Usage()
		return errUsage
	}
	return err
}

func runGenerate(cmd *cobra.Command, fl *flags, stdout io.Writer) error {
	ctx, cfg, err := setup(cmd, fl)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return usageOnMissingPath(cmd, err)
	}
	hint, err := compiler.ParseObjectiveHint(cfg.Objective)
	if err != nil {
		return &config.ConfigurationError{Field: "objective", Msg: err.Error()}
	}

	gen, err := rfcode.New(rfcode.Options{
		PackageName: cfg.PackageName,
		ClassName:   cfg.ClassName,
		Language:    cfg.Language,
		MainMethod:  cfg.MainMethod,
		Objective:   hint,
		Verify:      cfg.Verify,
	})
	if err != nil {
		return err
	}

	text, err := utils.ReadText(cfg.InFile)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, "Generating source code ...")
	path, res, err := gen.GenerateFile(ctx, text, cfg.OutDir)
	if err != nil {
		return err
	}
	if res.Checked > 0 {
		fmt.Fprintf(stdout, "Verified %d records\n", res.Checked)
	}
	fmt.Fprintf(stdout, "Finished generating outFile=%s\n", path)
	return nil
}

func runVerify(cmd *cobra.Command, fl *flags, stdout io.Writer) error {
	ctx, cfg, err := setup(cmd, fl)
	if err != nil {
		return err
	}
	if cfg.InFile == "" {
		return usageOnMissingPath(cmd, &config.ConfigurationError{
			Field: "inFile", Msg: "specify the tree model file with '-f [tree_file]'", MissingPath: true,
		})
	}
	hint, err := compiler.ParseObjectiveHint(cfg.Objective)
	if err != nil {
		return &config.ConfigurationError{Field: "objective", Msg: err.Error()}
	}

	text, err := utils.ReadText(cfg.InFile)
	if err != nil {
		return err
	}
	f, err := compiler.ParseModel(text, compiler.Options{Objective: hint})
	if err != nil {
		return fmt.Errorf("failed to parse model: %w", err)
	}
	n, err := rfcode.Verify(ctx, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "OK: %d trees agree on %d records\n", len(f.Trees), n)
	return nil
}
