// Package labor turns the situaciones table of a labor-history report into
// typed periods.
//
// Pages of raw cells are normalized and folded into logical records (one per
// situation, with wrapped company names re-joined), then matched against an
// allow-list of company names to produce vacation and contract periods.
// Nothing here returns an error: malformed rows are skipped and unparseable
// dates become empty strings, which the reconciliation engine ignores.
package labor
