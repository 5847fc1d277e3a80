// Package params flattens web-service call parameters into the bracket-indexed
// query encoding used by Moodle's REST protocol.
//
// A call's parameters form a Map of named Values. Encode walks each value
// depth-first and emits one string entry per scalar leaf:
//
//	params.Map{}.
//	    Add("assignmentids", params.Ints(42)).
//	    Add("since", params.None()).
//	    Add("grades", params.Records(grade))
//
// produces keys such as assignmentids[0] and grades[0][userid]. Sequences are
// indexed from zero, structured values use their field names, and absent
// optionals emit nothing at all (never an empty string).
//
// Go types opt into structured encoding by implementing Structured; the
// encoder never inspects types at run time beyond the closed Value set.
//
// Tree parses flattened pairs back into a nested map, which is convenient for
// diagnostics and tests.
package params
