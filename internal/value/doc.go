// Package value defines the structured values and fragment tokens that
// compiled nodes produce.
//
// Value is sealed: Null, Bool, Int, Uint, String, Array, Object, and
// DateTime. Objects keep their fields in schema order for output, while
// MarshalCanonical sorts keys (RFC 8785) so record hashes do not depend on
// declaration order.
//
// Token is the fragment type. Scalar values double as tokens; FieldName
// marks the start of an object field.
//
// Key constraints:
//   - No floats anywhere; numbers are int64 or uint64
//   - DateTime serializes as the text its own pattern renders
//   - Hashes use SHA-256 with a versioned domain prefix
package value
