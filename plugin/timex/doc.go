// Package timex is the temporal expression model: a typed, immutable representation of
// TIMEX values (dates, times, datetimes, durations and ranges, possibly partial or
// relative), their canonical text encoding, normalization, and ordered sets of
// alternative readings.
//
// Grammar (version GrammarVersion):
//
//	expr      := [mod] body
//	mod       := "<" | ">" | "<=" | ">=" | "~"
//	body      := range | duration | "PRESENT_REF" | datetime
//	range     := "(" point "," (point | duration) ["," duration] ")"
//	duration  := "P" [nY] [nM] [nW] [nD] ["T" [nH] [nM] [nS]]
//	datetime  := date ["T" time] | "T" time
//	date      := "REF" ("+"|"-") n ("D"|"W"|"WE"|"M"|"Q"|"Y") ["-" isoday]
//	           | year ["-" MM | "-" (MM|"XX") "-" DD | "-" MM "-W" ww [week-day]
//	             | "-W" (ww|"XX") [week-day] | "-Q" q | "-" ("SP"|"SU"|"FA"|"WI")]
//	week-day  := "-" (isoday | "WE")
//	year      := DDDD | "XXXX"
//	time      := HH [":" mm [":" ss]] ["AM"|"PM"] | "MO" | "AF" | "EV" | "NI" | "DT"
//
// Day of week is held as time.Weekday and written as ISO 1 (Monday) to 7 (Sunday).
// The package performs no I/O. All failures are *Error values.
package timex
