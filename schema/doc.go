// Package schema models the parameter schema a guest declares for its frame
// callback.
//
// A schema is an ordered list of parameters. Position i of the schema is
// positional argument i of request_animation_frame, and each variant fixes
// the core value type passed at that position:
//
//	time       -> f64  (elapsed seconds, supplied by the host)
//	range_f32  -> f32  (override or default)
//	range_i32  -> i32  (override or default)
//
// The wire format is a JSON array of objects tagged by "type":
//
//	[{"type":"time"},{"type":"range_f32","min":0,"max":1,"default":0.5}]
//
// Decoding is strict: an unknown or missing tag, a missing field or an
// ill-typed field is an error. Unknown extra fields are ignored.
package schema
