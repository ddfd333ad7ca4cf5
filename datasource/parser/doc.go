// Package parser contains the machinery shared by line-oriented ShapeParsers.
// Concrete formats live in the text and jsonl subpackages.
package parser
