// Package jsonl parses JSON Lines DataSources. This parser uses https://github.com/tidwall/gjson to process data,
// and supports locating the geometry of each line with a gjson path.
package jsonl
