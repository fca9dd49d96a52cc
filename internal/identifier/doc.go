// Package identifier validates and formats national identity numbers.
//
// RUT and provisional RUT values carry a modulus-11 check character; passports
// and foreign IDs only get shape checks. Everything here is pure: no I/O, no
// clock, no shared state, so callers may use it from any goroutine.
//
// Two string forms exist for RUT kinds:
//
//	display: 12.345.678-5   (thousands separated body, dash, check char)
//	storage: 123456785      (digits plus uppercase check char, no separators)
package identifier
