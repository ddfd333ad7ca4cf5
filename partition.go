package sindex

// A PartitionID identifies one spatial partition within a job. IDs are non-negative and dense,
// so they are used directly as output file indices.
type PartitionID int32

// A SentinelID is the signed wire key announcing the end of a partition's Records.
// The sentinel of partition p is -(p+1), so SentinelIDs never collide with PartitionIDs.
type SentinelID int32

// EncodeSentinel returns the SentinelID of a partition
func EncodeSentinel(p PartitionID) SentinelID {
	return SentinelID(-(int64(p) + 1))
}

// DecodeSentinel returns the partition announced by a SentinelID
func DecodeSentinel(s SentinelID) PartitionID {
	return PartitionID(-int64(s) - 1)
}

// IsValid returns true iff this is a usable PartitionID
func (p PartitionID) IsValid() bool {
	return p >= 0
}

// IsValid returns true iff this is a usable SentinelID
func (s SentinelID) IsValid() bool {
	return s < 0
}
