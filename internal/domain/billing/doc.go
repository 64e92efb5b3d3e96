// Package billing provides the pure calculation engine for rent billing and
// payment settlement in a multi-org property management application.
//
// This package implements the billing bounded context's arithmetic core, which
// is responsible for:
//   - Deriving billing periods and due dates from a tenant's rent-start anchor
//   - Computing late-payment penalties from configured percentages
//   - Prorating rent for mid-cycle move-outs
//   - Deciding deposit application and forfeiture at move-out
//   - Composing itemized final bills
//   - Allocating payments across bill components in priority order
//
// Every function in this package is deterministic and side-effect free: all
// configuration (penalty percentage, utility rates) and all state (bill
// snapshots, deposit balances, paid-cycle counts) arrive as explicit
// arguments, and results are plain values the caller persists. Nothing here
// reads the clock, the database, or global settings, so the calculators are
// safe to call concurrently without coordination.
//
// Key Calculators:
//   - CalculateBillingPeriod / CurrentBillingCycle: calendar-month cycle math
//   - CalculateDueDate: period end to due date in the business timezone
//   - CalculatePenalty: percentage-based late fee, whole-peso rounding
//   - CalculateProratedRent: inclusive-day proration for partial cycles
//   - CalculateDepositApplication: advance/security disposition at move-out
//   - CalculateFinalBill: full move-out settlement breakdown
//   - AllocatePayment / ValidatePaymentAllocation: priority-ordered
//     distribution of a received amount across component buckets
//
// The billing engine integrates with:
//   - Ledger domain: Bill and Payment aggregates persist its outputs
//   - Tenancy domain: move-in/move-out orchestration invokes the final bill
//     and deposit calculators
//   - Settings domain: supplies penalty percentages and utility rates
package billing
