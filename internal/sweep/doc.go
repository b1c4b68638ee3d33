// Package sweep runs many scenarios at once: grids over link and pull
// parameters, and batch files that list presets with overrides. Each run
// owns its own engine, so runs execute in parallel on a bounded worker set.
package sweep
