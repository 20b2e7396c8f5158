// Package compiler parses random forest model dumps and compiles the trees
// into source code for a target Dialect.
//
// Pipeline: model text → Lex → Parse → forest.Forest → CompileTree (per tree)
// → Aggregate → Program
package compiler
