// Package order provides the delivery order aggregate and its lifecycle state
// machine.
//
// The package includes:
//   - Order: the aggregate root holding folio, line items, money totals,
//     priority, lifecycle state, courier reference and optimistic version
//   - State: pendiente, aprobado, preparando, listo, en_ruta, entregado, cancelado
//   - Transition: a pure function (state, command, payload) -> outcome that
//     declares side effects instead of executing them
//   - HistoryEntry: the audit record appended on every committed transition
//
// Key business rules:
//   - entregado and cancelado are terminal; any further command fails with
//     an invalid transition error naming the command and the state
//   - reject and cancel require a non-empty reason
//   - cancelling or delivering an order with a courier declares a release of
//     the courier slot
//   - line items are immutable and totals freeze once the order leaves aprobado
package order
