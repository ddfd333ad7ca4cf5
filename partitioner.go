package sindex

// A Partitioner decides which partitions a Shape belongs to. Overlap, not a strict cover, is
// required: a Shape lying on a partition boundary belongs to every partition it touches.
// Partitioners are shared by all concurrent map tasks and must be safe for concurrent use.
type Partitioner interface {
	OverlapPartitions(shape Shape) []PartitionID // OverlapPartitions returns every partition the Shape overlaps, each at most once. The result may be empty.
	PartitionCount() int                         // PartitionCount returns the total number of partitions
}

// A BoundedPartitioner additionally knows the region covered by each of its partitions
type BoundedPartitioner interface {
	Partitioner
	PartitionMBR(p PartitionID) (Rectangle, error) // PartitionMBR returns the region covered by a partition
}
