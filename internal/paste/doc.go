// Package paste classifies freshly pasted plain text against a prioritized
// set of patterns and synthesizes the block data for the winning pattern.
//
// A pattern pairs a matcher with a producer. Classification scans patterns
// by priority (descending), with ties broken by registration order via an
// explicit sequence counter rather than container iteration order. The first
// pattern whose matcher succeeds and whose producer returns a non-nil
// payload wins; a producer error or nil payload lets the scan continue.
// Exactly one block is ever produced per paste.
//
// Producers may suspend on network enrichment (for example fetching a remote
// page title for a bare URL). Enrichment runs under a best-effort timeout
// and degrades silently to the raw match on failure; a paste is never
// blocked or dropped because an enrichment step failed.
//
// If the winning pattern's target kind is not registered (the block type was
// disabled by configuration), classification falls back to a default-kind
// payload carrying the matched text, so pasted content is never silently
// dropped. If no pattern matches, classification yields nothing and the
// host's default paste handling proceeds.
package paste
