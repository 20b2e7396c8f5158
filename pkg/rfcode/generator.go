// Package rfcode ties the pipeline together: it parses a forest dump,
// compiles every tree, assembles the class and writes it out.
package rfcode

import (
	"context"
	"fmt"
	"time"

	"rfcode/pkg/assemble"
	"rfcode/pkg/compiler"
	"rfcode/pkg/ctxlog"
	"rfcode/pkg/forest"
	"rfcode/pkg/target"
	"rfcode/pkg/utils"
	"rfcode/pkg/verify"
)

// Default names used when Options leaves them empty.
const (
	DefaultPackage  = "com.example"
	DefaultClass    = "RandomForestEngine"
	DefaultLanguage = "java"
)

// verifyExtraRecords is the number of mixed records added on top of the
// single-attribute variations.
const verifyExtraRecords = 64

// Options configures a Generator.
type Options struct {
	PackageName string
	ClassName   string
	Language    string
	MainMethod  bool
	Objective   compiler.ObjectiveHint
	// Verify cross-checks the compiled decision logic before rendering.
	Verify bool
}

// Generator turns model text into source code. It holds no state between
// calls and may be reused.
type Generator struct {
	opts   Options
	target assemble.Target
}

// Result is everything one Generate call produced.
type Result struct {
	Source string
	Class  *assemble.GeneratedClass
	Forest *forest.Forest
	// Checked is the number of records checked when verification ran.
	Checked int
}

// New validates opts and fills in defaults.
func New(opts Options) (*Generator, error) {
	if opts.ClassName == "" {
		opts.ClassName = DefaultClass
	}
	if opts.Language == "" {
		opts.Language = DefaultLanguage
	}
	t, err := target.Lookup(opts.Language)
	if err != nil {
		return nil, err
	}
	return &Generator{opts: opts, target: t}, nil
}

// Generate returns the source text for the model without touching the file
// system.
func (g *Generator) Generate(ctx context.Context, text string) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	start := time.Now()

	f, err := compiler.ParseModel(text, compiler.Options{Objective: g.opts.Objective})
	if err != nil {
		return nil, fmt.Errorf("failed to parse model: %w", err)
	}
	logger.Debug("Parsed model.", "trees", len(f.Trees), "nodes", len(f.Nodes),
		"attributes", len(f.Schema), "objective", f.Objective.Kind.String())
	if f.SampleErr != nil {
		logger.Warn("Ignoring unusable sample block.", "error", f.SampleErr)
	}

	res := &Result{Forest: f}
	if g.opts.Verify {
		n, err := Verify(ctx, f)
		if err != nil {
			return nil, err
		}
		res.Checked = n
	}

	idents := compiler.BindIdentifiers(f.Schema, g.target)
	prog, err := compiler.Aggregate(f, g.target, idents)
	if err != nil {
		return nil, fmt.Errorf("failed to compile forest: %w", err)
	}
	logger.Debug("Compiled forest.", "language", g.target.Name(), "inference", prog.InferenceName)

	class, err := assemble.Assemble(f, prog, idents, g.target, assemble.Options{
		PackageName: g.opts.PackageName,
		ClassName:   g.opts.ClassName,
		MainMethod:  g.opts.MainMethod,
	})
	if err != nil {
		return nil, err
	}
	if class.Degraded {
		logger.Warn("No usable sample: main method left empty.", "class", class.ClassName)
	}

	src, err := class.Render()
	if err != nil {
		return nil, err
	}
	res.Source = src
	res.Class = class
	logger.Debug("Rendered source.", "class", class.ClassName, "bytes", len(src), "duration", time.Since(start))
	return res, nil
}

// GenerateFile generates the class and writes it into dir, creating dir when
// needed. It returns the absolute path of the written file.
func (g *Generator) GenerateFile(ctx context.Context, text, dir string) (string, *Result, error) {
	res, err := g.Generate(ctx, text)
	if err != nil {
		return "", nil, err
	}
	path, err := utils.WriteText(dir, res.Class.FileName(), res.Source)
	if err != nil {
		return "", nil, err
	}
	ctxlog.FromContext(ctx).Debug("Wrote source file.", "path", path)
	return path, res, nil
}

// Verify compiles f to CEL and checks it against the in-memory evaluator on
// generated records. It returns the number of records checked.
func Verify(ctx context.Context, f *forest.Forest) (int, error) {
	v, err := verify.New(f)
	if err != nil {
		return 0, fmt.Errorf("failed to build verifier: %w", err)
	}
	recs := verify.Records(f, verifyExtraRecords)
	if err := v.Check(recs); err != nil {
		return 0, err
	}
	ctxlog.FromContext(ctx).Debug("Verified compiled trees.", "records", len(recs), "trees", len(f.Trees))
	return len(recs), nil
}
