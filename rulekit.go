// Package rulekit extracts structured component lists from tabletop game
// rulebook text and harvests, scores, and deduplicates candidate component
// images from fetched HTML documents. Both pipelines are driven by an
// immutable GameProfile describing section-header synonyms, canonical
// component labels, exclusion keywords, and scoring thresholds.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency or function (e.g., goquery/, yaml/,
// extract/, harvest/).
package rulekit
