// Package assemble merges a compiled forest program into the class skeleton
// of a target language and renders the final source text.
package assemble

import (
	"strings"

	"rfcode/pkg/compiler"
	"rfcode/pkg/forest"
)

// Target is everything the assembler needs from a language backend.
type Target interface {
	compiler.ProgramDialect
	FileExtension() string
	// Skeleton is the class template with ${...} placeholders.
	Skeleton() string
	FieldType(kind forest.AttrKind) string
	Field(typ, ident string) string
	Constructor(class string) string
	// PackageDecl renders the package statement, or "" for the default package.
	PackageDecl(pkg string) string
	// DemoValue renders a sample literal for an attribute of the given kind.
	DemoValue(kind forest.AttrKind, literal string) string
	DemoMethod(d Demo) string
}

// Options selects names and the optional demo method.
type Options struct {
	PackageName string
	ClassName   string
	MainMethod  bool
}

// Field is one generated member variable.
type Field struct {
	Attr  int // schema index
	Name  string
	Ident string
	Type  string
}

// Assignment sets one field of the demo instance.
type Assignment struct {
	Ident string
	Value string
}

// Demo describes the demo method. With Placeholder set the method body is
// empty because no usable sample was parsed.
type Demo struct {
	ClassName     string
	Objective     string
	InferenceName string
	ReturnType    string
	Assignments   []Assignment
	Placeholder   bool
}

// GeneratedClass is the synthesized source artifact. It is built once and
// not modified afterwards.
type GeneratedClass struct {
	ClassName   string
	PackageName string
	Extension   string
	Fields      []Field
	Program     *compiler.Program
	Constructor string
	// DemoMethod is empty when no demo was requested.
	DemoMethod string
	// Degraded reports that a demo was requested but rendered as a placeholder.
	Degraded bool

	target Target
}

// FileName is the name of the file the class is written to.
func (c *GeneratedClass) FileName() string {
	return c.ClassName + "." + c.Extension
}

// Assemble derives the class from a compiled program. idents must come from
// compiler.BindIdentifiers on the same forest and target.
func Assemble(f *forest.Forest, prog *compiler.Program, idents []string, t Target, opts Options) (*GeneratedClass, error) {
	if prog == nil {
		return nil, &compiler.InternalError{Msg: "nothing to assemble: program is nil"}
	}
	if len(idents) != len(f.Schema) {
		return nil, &compiler.InternalError{Msg: "identifier binding does not match the schema"}
	}

	c := &GeneratedClass{
		ClassName:   opts.ClassName,
		PackageName: opts.PackageName,
		Extension:   t.FileExtension(),
		Program:     prog,
		Constructor: t.Constructor(opts.ClassName),
		target:      t,
	}
	for _, i := range f.Features() {
		attr := f.Schema[i]
		c.Fields = append(c.Fields, Field{Attr: i, Name: attr.Name, Ident: idents[i], Type: t.FieldType(attr.Kind)})
	}

	if opts.MainMethod {
		d := Demo{
			ClassName:     opts.ClassName,
			Objective:     f.ObjectiveName(),
			InferenceName: prog.InferenceName,
			ReturnType:    prog.ReturnType,
		}
		if s := f.Sample; s != nil {
			for _, fld := range c.Fields {
				d.Assignments = append(d.Assignments, Assignment{
					Ident: fld.Ident,
					Value: t.DemoValue(f.Schema[fld.Attr].Kind, s.Values[fld.Attr]),
				})
			}
		} else {
			d.Placeholder = true
			c.Degraded = true
		}
		c.DemoMethod = t.DemoMethod(d)
	}
	return c, nil
}

// Render substitutes the class parts into the target skeleton.
func (c *GeneratedClass) Render() (string, error) {
	fields := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		fields[i] = c.target.Field(f.Type, f.Ident)
	}
	trees := make([]string, len(c.Program.Trees))
	for i, fr := range c.Program.Trees {
		trees[i] = fr.Source
	}

	main := ""
	if c.DemoMethod != "" {
		main = "\n" + c.DemoMethod
	}
	return Substitute(c.target.Skeleton(), map[string]string{
		"PACKAGE_DECL": c.target.PackageDecl(c.PackageName),
		"PACKAGE":      c.PackageName,
		"CLASS":        c.ClassName,
		"FIELDS":       strings.Join(fields, "\n"),
		"CONSTRUCTOR":  c.Constructor,
		"INFERENCE":    c.Program.Inference,
		"TREES":        strings.Join(trees, "\n"),
		"MAIN":         main,
	})
}
