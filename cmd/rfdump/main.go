package main

import (
	"fmt"
	"os"

	"rfcode/pkg/compiler"
	"rfcode/pkg/target"
)

const testSource = `RandomTree
==========

petallength < 2.45 : Iris-setosa (50/0)
petallength >= 2.45
|   petalwidth < 1.75 : Iris-versicolor (54/5)
|   petalwidth >= 1.75 : Iris-virginica (46/1)

Size of the tree : 5
`

func main() {
	src := testSource
	if len(os.Args) > 1 {
		data, err := os.ReadFile(os.Args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "read error:", err)
			os.Exit(1)
		}
		src = string(data)
	}

	fmt.Printf("Source:\n%s\n", src)

	// Lex
	tokens := compiler.Lex(src)
	fmt.Printf("Tokens (%d)\n", len(tokens))
	for _, tok := range tokens {
		fmt.Println(" ", tok)
	}
	fmt.Println()

	// Parse
	f, err := compiler.Parse(tokens, compiler.Options{})
	if err != nil {
		fmt.Fprintln(os.Stderr, "parse error:", err)
		os.Exit(1)
	}

	fmt.Printf("Forest: %d trees, objective %q (%s)\n", len(f.Trees), f.ObjectiveName(), f.Objective.Kind)
	for i, attr := range f.Schema {
		fmt.Printf("  attr %d: %s %s\n", i, attr.Name, attr.Kind)
	}
	if f.SampleErr != nil {
		fmt.Println("  sample ignored:", f.SampleErr)
	}
	for i, t := range f.Trees {
		fmt.Printf("Tree %d (line %d)\n", i, t.Line)
		fmt.Print(f.TreeString(t))
	}
	fmt.Println()

	// code Generation
	java, _ := target.Lookup("java")
	idents := compiler.BindIdentifiers(f.Schema, java)
	prog, err := compiler.Aggregate(f, java, idents)
	if err != nil {
		fmt.Fprintln(os.Stderr, "codegen error:", err)
		os.Exit(1)
	}

	fmt.Println("Generated Java")
	fmt.Print(prog.Inference)
	for _, fr := range prog.Trees {
		fmt.Println()
		fmt.Print(fr.Source)
	}
}
