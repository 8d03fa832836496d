// Package diag defines the diagnostic model shared by all metadata passes.
//
// Diagnostic is the central record: Severity, Code (numeric, with a stable
// string form such as SPC3001), Message, the primary Subject inside the
// program model and optional Notes. Subjects are "::"-joined paths like
// "erc20::messages::transfer".
//
// Passes emit through a Reporter. BagReporter collects into a Bag, which
// supports sorting and deduplication; DedupReporter filters repeats before
// forwarding. Fatal conditions are returned as typed errors by the passes
// themselves; diagnostics carry warnings such as selector collisions and
// informational notes such as excluded storage variables.
//
// The package performs no IO. FormatShort renders a stable one-line-per-entry
// form for test failures; internal/diagfmt renders bags for the CLI.
package diag
