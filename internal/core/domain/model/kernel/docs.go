// Package kernel holds the value objects shared by every aggregate of the
// dispatch domain: UUID identifiers and GeoPoint coordinates with haversine
// distance. Both reject their zero values so an unset identifier or a failed
// geocode can never be mistaken for a real one.
package kernel
