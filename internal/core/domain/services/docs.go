// Package services contains domain services that coordinate logic spanning
// several aggregates.
//
// AssignmentPlanner proposes a courier for an order from a set of candidates
// (courier plus latest location sample). It is pure: the caller supplies the
// current instant and the candidate snapshot, and it never mutates aggregates.
package services
