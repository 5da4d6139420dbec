// Package operation derives the searchable operation index from the adapter
// registry.
//
// Each adapter tool becomes one operation record carrying its canonical tool
// ID, parameter contract, and risk tier. Risk is classified from the tool
// name and adapter category: read-style names are low, money-movement names
// or financial categories are high, removal-style names are destructive, and
// everything else is medium.
//
// The search engine tokenizes queries and operation metadata, scores term
// overlap with boosts for exact tool names, adapter-name mentions, and
// context hints (country, currency, capability), and returns ranked results
// with a confidence in [0,1] and a short why string.
//
// The index is rebuilt only by explicit Reindex calls.
package operation
