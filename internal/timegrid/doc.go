// Package timegrid holds the interval and wall-clock arithmetic shared by the
// placement engine: minute-of-day clocks, half-open intervals, the working
// window and the duration policy.
package timegrid
