// Package classfile provides the structured class tree the transformation
// engine operates on, together with a default codec for reading and writing
// that tree as bytes.
//
// # Data Model
//
// A Class owns an ordered list of Methods; a Method owns an ordered, mutable
// list of Instructions. Instructions are a tagged variant: the Opcode selects
// the immediate type carried in Imm. Dynamic call sites (invokedynamic) carry
// their symbolic type descriptor, call-site name, and bootstrap constants,
// which is the metadata the lambda-detection rules pattern-match on.
//
// Identity is the runtime view of a loaded class: its name plus the nominal
// assignable-set reported by the host. Assignability is an explicit set
// lookup computed at ingestion, not a reflective query.
//
// # Descriptors
//
// Method descriptors use the JVM encoding, e.g. "(ILjava/lang/String;)V".
// ReturnSort classifies a descriptor's return type:
//
//	sort, err := classfile.ReturnSort("(I)J")
//	// sort == classfile.SortLong
//
// # Classpack Codec
//
// The engine treats byte-level parsing as an external collaborator behind the
// Codec interface. The default implementation, classpack, is a canonical CBOR
// body in a small versioned container with zstd compression:
//
//	codec := classfile.NewClasspackCodec()
//	data, err := codec.Encode(cls)
//	cls2, err := codec.Decode(data)
//
// Round-trips preserve the tree exactly, including bootstrap constants.
package classfile
