// Package event assembles the normalized record of one event page.
//
// A Record combines listing metadata (venue, name, date, image) with the
// ticket tiers extracted by package tier, names the tier currently on sale
// and carries a fixed six-slot projection of the tiers for tabular
// consumers. Records are built once by Assemble and never mutated. The
// package also compares result sets across runs (Diff) so callers can
// report new events and price moves.
package event
