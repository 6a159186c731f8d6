package components

import (
	"sort"
	"sync"
)

// Global registry for component detectors
var (
	detectors []Detector
	mu        sync.RWMutex
)

// Register adds a component detector to the registry
func Register(detector Detector) {
	mu.Lock()
	defer mu.Unlock()
	detectors = append(detectors, detector)
}

// GetDetectors returns all registered component detectors sorted by name
func GetDetectors() []Detector {
	mu.RLock()
	defer mu.RUnlock()
	out := append([]Detector(nil), detectors...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
