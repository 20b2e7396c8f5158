package compiler

import (
	"rfcode/pkg/forest"
)

// Compile runs the whole front half of the pipeline on model text: it parses
// the forest, binds identifiers in d and compiles every tree plus the
// inference function.
func Compile(src string, d ProgramDialect, opts Options) (*forest.Forest, *Program, []string, error) {
	f, err := ParseModel(src, opts)
	if err != nil {
		return nil, nil, nil, err
	}

	idents := BindIdentifiers(f.Schema, d)
	prog, err := Aggregate(f, d, idents)
	if err != nil {
		return f, nil, idents, err
	}
	return f, prog, idents, nil
}
