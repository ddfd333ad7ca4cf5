package sindex

import (
	"context"
	"fmt"
)

// RecordKind distinguishes the two variants of a Record
type RecordKind uint8

const (
	// DataRecord carries one Shape assigned to a partition
	DataRecord RecordKind = iota
	// EndRecord announces that a partition will receive no further Records
	EndRecord
)

// A Record is the unit of the shuffle: either Data(p, shape) or End(p).
// For every partition that receives Data, exactly one End follows the last Data.
type Record struct {
	Kind      RecordKind
	Partition PartitionID
	Shape     Shape // nil for EndRecords
}

// Data creates a DataRecord assigning a Shape to a partition
func Data(p PartitionID, shape Shape) Record {
	return Record{Kind: DataRecord, Partition: p, Shape: shape}
}

// End creates the EndRecord of a partition
func End(p PartitionID) Record {
	return Record{Kind: EndRecord, Partition: p}
}

// IsEnd returns true iff this is an EndRecord
func (r Record) IsEnd() bool {
	return r.Kind == EndRecord
}

// Key returns the signed wire key of this Record: the PartitionID for Data, the SentinelID for End
func (r Record) Key() int32 {
	if r.IsEnd() {
		return int32(EncodeSentinel(r.Partition))
	}
	return int32(r.Partition)
}

// RecordFromKey rebuilds a Record from its signed wire key. Negative keys produce EndRecords, which must not carry a Shape.
func RecordFromKey(key int32, shape Shape) (Record, error) {
	if key < 0 {
		if shape != nil {
			return Record{}, fmt.Errorf("End record for partition %d carries a shape", DecodeSentinel(SentinelID(key)))
		}
		return End(DecodeSentinel(SentinelID(key))), nil
	}
	if shape == nil {
		return Record{}, fmt.Errorf("Data record for partition %d has no shape", key)
	}
	return Data(PartitionID(key), shape), nil
}

func (r Record) String() string {
	if r.IsEnd() {
		return fmt.Sprintf("End(%d)", r.Partition)
	}
	return fmt.Sprintf("Data(%d, %v)", r.Partition, r.Shape)
}

// A RecordWriter consumes a stream of Records. Records of one partition arrive in order, and
// the partition is complete once its EndRecord has been written.
type RecordWriter interface {
	Write(ctx context.Context, rec Record) error
}
