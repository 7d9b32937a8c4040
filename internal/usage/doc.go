// Package usage tracks which materials serve which cuts during an allocation
// run and reports on the outcome: usage rate, per-category coverage, reasons
// and suggestions for unused materials, score statistics and requirement
// validation.
//
// A Tracker is created fresh for every run and is not safe for concurrent use.
package usage
