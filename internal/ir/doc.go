// Package ir provides the record value model shared by every other package.
//
// A record is an Object: a map from field name to a sealed Value (Null,
// String, Int, Float, Bool, Array, Object). ir imports nothing internal so
// it stays the foundational layer.
//
// Key design constraints:
//   - A missing key is "undefined"; Null is an explicit JSON null
//   - Integers never pass through float64 (decoding uses json.Number)
//   - Canonical JSON (RFC 8785) is the only serialization used for hashes,
//     persisted bodies, and golden files
package ir
