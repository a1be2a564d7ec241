// Package persist is the structured persistence layer used by the timeline.
//
// State is written into ordered dictionaries ([Dict]) and lists ([List])
// holding named primitive fields, nested containers and fixed-size binary
// struct blobs. Readers ask for a field by name and either receive an explicit
// default when it is absent ([Dict.Int64Or]) or an error wrapping
// [ErrFieldMissing] ([Dict.Int64]). Reading a field as the wrong kind yields a
// [*TypeMismatchError]. Insertion order survives a round-trip.
//
// The YAML codec ([MarshalYAML], [UnmarshalYAML]) is the textual form used
// for project files.
package persist
