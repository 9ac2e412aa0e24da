// Package render provides the run-level text helpers used by the merge engine.
//
// Word fragments a paragraph's text across formatting runs, so a placeholder
// such as {{name}} may start in one w:r and end in another. The Index type
// reconstructs the paragraph's logical text, remembers which run produced
// which byte range, and splices replacement text back into the runs under a
// range without disturbing the runs around it.
//
// # Structure Organization
//
//   - index.go: Index construction and splicing
//
// # Design Principles
//
// Functions here are pure with respect to the document: they only touch the
// runs they are given and never insert or remove paragraphs. Structural edits
// live in the docmerge package.
package render
