// Package integration contains the Integration bounded context.
// This context handles order events pushed by the commerce platform and the
// SKU substitution rules applied to them.
//
// Key concepts:
//   - SkuMapping: operator-defined rule pairing an original SKU with a replacement, gated by tags
//   - IncomingOrder: value object decoded from an order-creation webhook
//   - ReplacementPlan: line-item rewrites computed for one order event
//   - ProcessingLog: append-only audit record of one webhook's outcome
//   - OrderEditor: port for rewriting line items on the remote order
//   - OrderLocker: port serializing work on the same remote order
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
