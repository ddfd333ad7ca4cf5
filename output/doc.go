// Package output materializes partitions. Each partition is written to its own file,
// which is opened when the first Data Record of the partition arrives and committed
// atomically when its End Record arrives. A partition file is therefore either complete
// or absent.
package output
