// Package rawdata normalizes device diagnostic dumps into ordered word
// sequences.
//
// A dump arrives in one of three encodings and carries no trusted extension
// or header tag, so the encoding is decided from content alone:
//
//   - binary: any zero byte anywhere in the content
//   - structured: content that parses as a JSON document
//   - text: everything else (line-oriented human-readable report)
//
// Each encoding has its own extractor. All of them preserve the order in
// which words appear in the dump, since segment decoding downstream relies
// on that order matching the device layout.
package rawdata
