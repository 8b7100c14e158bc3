// Package courier provides the courier (rutero) aggregate, location samples
// reported by courier devices and the read-time availability derivation.
//
// Key business rules:
//   - a courier holds at most K active orders; Claim re-checks the limit
//   - the active order set changes only through Claim and Release
//   - availability is offline whenever the newest sample is older than the
//     freshness threshold, regardless of any previous state
package courier
