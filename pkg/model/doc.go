// Package model binds Go structs to validation schemas. Field names come from
// the `form` tag (or the Go field name), rules from the `rules` tag, display
// names from `display` and HTML input hints from `input`. Types may implement
// Declarer to add rules in code. Compiled metadata is cached per type by a
// Compiler, and snapshots expose field values to the rule evaluator without
// copying the model.
package model
