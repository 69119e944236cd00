// Package stocktax computes the yearly realized gains of stock and option
// trading for tax reporting. It replays broker trade histories through an
// average-cost accounting engine and buckets every realized amount by the
// calendar year it was booked in.
//
// The core functionalities include:
//   - Position Accounting: Tracking one symbol per position under average
//     cost, with signed quantities covering both long and short exposure,
//     option contract multipliers, and fees baked into the effective price
//     of each trade.
//   - Event Replay: A ledger that replays normalized trade and fee events in
//     chronological order, the single way positions are mutated.
//   - Option Expiry: Writing off positions in expired option contracts as
//     realized losses in the year of expiry.
//   - Reporting: Yearly realized-gain tables grouped by settlement currency,
//     with per-symbol rows, per-year columns and currency totals.
//
// The broker-specific normalization of Futu and Longport exports lives in
// the futu and longport subpackages; this package serves as the foundational
// logic for the `stc` command-line tool.
package stocktax
