// Package calibration is the numeric core of the 4-20 mA loop check. It
// contains:
//
//   - IdealPoints: the five setpoints at 0, 25, 50, 75 and 100 % of span
//   - Equation: the current-output line through (LRV, 4 mA) and (URV, 20 mA)
//   - Errors: the per-point difference between ideal and measured readings
//   - Approved: the aggregate verdict against a tolerance threshold
//
// Every function is pure. Nothing in this package knows about sessions, HTTP
// or report documents; those packages depend on this one, never the reverse.
package calibration
