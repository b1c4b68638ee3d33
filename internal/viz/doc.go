// Package viz renders links and runs for the terminal.
//
//   - [ConstraintTable]: live constraints with their parameters and loads
//   - [Report]: a run summary with metrics and events
//   - [PlotSeries]: asciigraph plots of sample series
//   - [Scene]: a braille sketch of the parts and the link on the X/Z plane
//
// Infinite forces are drawn clamped and labelled "inf".
package viz
