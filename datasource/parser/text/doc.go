// Package text parses delimited text DataSources, one Shape per line.
//
// Points are written "x,y", Rectangles "x1,y1,x2,y2" and Polygons
// "n,x1,y1,...,xn,yn". The separator is configurable.
package text
