// Package doccrawl provides a breadth-first documentation crawler with a
// persistent crawl frontier. It renders pages in a headless browser,
// extracts their main content as Markdown, writes it next to a metadata
// sidecar for indexing, and follows in-scope links until every discovered
// page has been processed.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, rod/, goquery/).
package doccrawl
