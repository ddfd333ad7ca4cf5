// Package sindex contains the core components of sindex, a framework for building spatial indexes
// by repartitioning large, unordered collections of shapes. This root package defines the types
// shared by every stage of the repartitioning pipeline (shapes, partition identifiers, records and
// the capabilities a job is assembled from), and is an excellent overview of the key concepts.
//
// A job reads Shapes from a DataSource, asks a Partitioner which partitions each Shape overlaps,
// shuffles the resulting Records by PartitionID and finally writes every partition as an
// independent output unit, terminated by exactly one End Record.
package sindex
