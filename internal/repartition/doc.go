// Package repartition contains the two stages of a repartitioning job: the Assigner, which
// fans each input Shape out to every partition it overlaps, and the Closer, which writes the
// grouped Shapes of one partition followed by a single End Record.
package repartition
