// Package loaders provides implementations of the DocumentLoader interface
// for the source formats Loremaster can index. Each loader knows how to
// extract text units from one family of file extensions.
//
// Loaders are registered with the Registry at startup; which ones are
// enabled comes from the [loaders] configuration section.
package loaders
