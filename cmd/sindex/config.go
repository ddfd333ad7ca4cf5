package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-sif/sindex"
	"github.com/go-sif/sindex/indexer"
	"gopkg.in/yaml.v2"
)

// loadJobConfig reads a YAML job file, e.g.
//
//	input: /data/points
//	output: /data/points.grid
//	shape: point
//	sindex: grid
//	mbr: {x1: 0, y1: 0, x2: 100, y2: 100}
func loadJobConfig(path string) (indexer.JobConfig, error) {
	var conf indexer.JobConfig
	contents, err := os.ReadFile(path)
	if err != nil {
		return conf, fmt.Errorf("unable to read job file: %w", err)
	}
	if err := yaml.UnmarshalStrict(contents, &conf); err != nil {
		return conf, fmt.Errorf("unable to parse job file %s: %w", path, err)
	}
	return conf, nil
}

// parseMBR parses a Rectangle given as "x1,y1,x2,y2"
func parseMBR(s string) (*sindex.Rectangle, error) {
	fields := strings.Split(s, ",")
	if len(fields) != 4 {
		return nil, fmt.Errorf("mbr must have the form x1,y1,x2,y2, got '%s'", s)
	}
	var coords [4]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid mbr coordinate '%s': %w", f, err)
		}
		coords[i] = v
	}
	mbr := sindex.NewRectangle(coords[0], coords[1], coords[2], coords[3])
	return &mbr, nil
}
