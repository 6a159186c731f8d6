package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/petrarca/composition-scanner/internal/archive"
	"github.com/petrarca/composition-scanner/internal/componentpattern"
	"github.com/petrarca/composition-scanner/internal/license"
	"github.com/petrarca/composition-scanner/internal/scanner"
	"github.com/petrarca/composition-scanner/internal/scanner/components"
	"github.com/petrarca/composition-scanner/internal/scanner/matchers"
	"github.com/petrarca/composition-scanner/internal/validation"
)

// Prints how long each scanner collaborator takes to initialize
func main() {
	patternsDir := flag.String("patterns", "", "reference pattern directory to load")
	flag.Parse()
	start := time.Now()

	t1 := time.Now()
	schemas, err := validation.ListAvailableSchemas()
	if err != nil {
		panic(err)
	}
	fmt.Printf("ListAvailableSchemas: %v (%d schemas)\n", time.Since(t1), len(schemas))

	if *patternsDir != "" {
		t2 := time.Now()
		patterns, err := componentpattern.LoadDir(*patternsDir)
		if err != nil {
			panic(err)
		}
		fmt.Printf("LoadDir: %v (%d patterns)\n", time.Since(t2), len(patterns))

		t3 := time.Now()
		var anchors []string
		for _, p := range patterns {
			anchors = append(anchors, "**/"+p.VersionAnchor)
		}
		matchers.NewPatternMatcher(anchors...)
		fmt.Printf("NewPatternMatcher: %v\n", time.Since(t3))
	}

	t4 := time.Now()
	registry := archive.DefaultRegistry(archive.Options{})
	fmt.Printf("DefaultRegistry: %v (%d extensions)\n", time.Since(t4), len(registry.Extensions()))

	t5 := time.Now()
	detectors := components.GetDetectors()
	fmt.Printf("GetDetectors: %v (%d detectors)\n", time.Since(t5), len(detectors))

	t6 := time.Now()
	license.NewLicenseDetector()
	fmt.Printf("NewLicenseDetector: %v\n", time.Since(t6))

	t7 := time.Now()
	scanner.NewTypeInspector()
	fmt.Printf("NewTypeInspector: %v\n", time.Since(t7))

	fmt.Printf("\nTotal init: %v\n", time.Since(start))
}
