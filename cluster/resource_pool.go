package cluster

import (
	"runtime"

	"github.com/go-sif/sindex"
)

// LocalResourcePool is the capacity of the current machine: one map and one reduce slot per CPU
type LocalResourcePool struct{}

// MapSlots returns the number of CPUs
func (LocalResourcePool) MapSlots() int { return runtime.NumCPU() }

// ReduceSlots returns the number of CPUs
func (LocalResourcePool) ReduceSlots() int { return runtime.NumCPU() }

// StaticResourcePool is a fixed capacity
type StaticResourcePool struct {
	Maps    int `mapstructure:"map_slots" yaml:"map_slots"`
	Reduces int `mapstructure:"reduce_slots" yaml:"reduce_slots"`
}

// MapSlots returns Maps
func (p StaticResourcePool) MapSlots() int { return p.Maps }

// ReduceSlots returns Reduces
func (p StaticResourcePool) ReduceSlots() int { return p.Reduces }

var _ sindex.ResourcePool = LocalResourcePool{}
var _ sindex.ResourcePool = StaticResourcePool{}
