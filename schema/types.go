// Package schema implements the BinSchema object model: a tagged type graph
// loaded from a structured document, validated against the invariants of
// spec §3, and handed to the codec/driver packages as an immutable schema
// handle.
//
// The shape of Field below — one struct multiplexing dozens of mostly
// mutually-exclusive optional attributes behind a single Type tag — is kept
// from the teacher schema package's own Field struct
// (go/schema/schema.go), which does the same thing for its FieldType/Case/
// GuardDef/FlaggedDef family. A deeply nested declarative format is easier
// to parse and validate as one struct with many optional pointer/zero-value
// fields than as a set of Go interfaces, and the teacher already demonstrates
// that texture holds up at scale.
package schema

import "github.com/serialexp/binschema-sub003/bitstream"

// FieldType is the tag that selects which of a Field's attribute groups is
// meaningful (spec §3 "Field-definition").
type FieldType string

const (
	TypeUint8  FieldType = "uint8"
	TypeUint16 FieldType = "uint16"
	TypeUint32 FieldType = "uint32"
	TypeUint64 FieldType = "uint64"
	TypeInt8   FieldType = "int8"
	TypeInt16  FieldType = "int16"
	TypeInt32  FieldType = "int32"
	TypeInt64  FieldType = "int64"
	TypeFloat32 FieldType = "float32"
	TypeFloat64 FieldType = "float64"

	TypeBit       FieldType = "bit" // signed/unsigned bit-slice, Size in bits
	TypeBitfield  FieldType = "bitfield" // container of named bit slices
	TypeVarlength FieldType = "varlength"
	TypeString    FieldType = "string"
	TypeArray     FieldType = "array"
	TypeOptional  FieldType = "optional"
	TypePadding   FieldType = "padding"
	TypeBackReference FieldType = "back_reference"
	TypeRef       FieldType = "type_ref" // reference to another named type
)

// IsPrimitive reports whether t is one of the fixed-width primitives.
func (t FieldType) IsPrimitive() bool {
	switch t {
	case TypeUint8, TypeUint16, TypeUint32, TypeUint64,
		TypeInt8, TypeInt16, TypeInt32, TypeInt64,
		TypeFloat32, TypeFloat64:
		return true
	}
	return false
}

// ByteSize returns the on-wire size of a fixed-width primitive type, or 0 if
// t is not a fixed-width primitive.
func (t FieldType) ByteSize() int {
	switch t {
	case TypeUint8, TypeInt8:
		return 1
	case TypeUint16, TypeInt16:
		return 2
	case TypeUint32, TypeInt32, TypeFloat32:
		return 4
	case TypeUint64, TypeInt64, TypeFloat64:
		return 8
	}
	return 0
}

func (t FieldType) Signed() bool {
	switch t {
	case TypeInt8, TypeInt16, TypeInt32, TypeInt64:
		return true
	}
	return false
}

// VarlengthEncoding is the wire representation for a `varlength` field.
type VarlengthEncoding string

const (
	VarlengthDER     VarlengthEncoding = "der"
	VarlengthLEB128  VarlengthEncoding = "leb128"
)

// StringKind selects a string field's framing.
type StringKind string

const (
	StringLengthPrefixed StringKind = "length_prefixed"
	StringNullTerminated StringKind = "null_terminated"
	StringFixed          StringKind = "fixed"
	StringFieldReferenced StringKind = "field_referenced"
)

// StringEncoding selects the character encoding of a string field.
type StringEncoding string

const (
	EncodingASCII StringEncoding = "ascii"
	EncodingUTF8  StringEncoding = "utf8"
)

// ArrayKind is the axis the String/Array Codec dispatches on (spec §4.5).
type ArrayKind string

const (
	ArrayFixed                ArrayKind = "fixed"
	ArrayLengthPrefixed       ArrayKind = "length_prefixed"
	ArrayLengthPrefixedItems  ArrayKind = "length_prefixed_items"
	ArrayByteLengthPrefixed   ArrayKind = "byte_length_prefixed"
	ArrayFieldReferenced      ArrayKind = "field_referenced"
	ArrayComputedCount        ArrayKind = "computed_count"
	ArrayNullTerminated       ArrayKind = "null_terminated"
	ArraySignatureTerminated  ArrayKind = "signature_terminated"
	ArrayVariantTerminated    ArrayKind = "variant_terminated"
	ArrayEOFTerminated        ArrayKind = "eof_terminated"
	ArrayGreedy               ArrayKind = "greedy"
)

// OffsetFrom is the origin a back_reference's offset is measured from.
type OffsetFrom string

const (
	OffsetMessageStart    OffsetFrom = "message_start"
	OffsetCurrentPosition OffsetFrom = "current_position"
)

// ComputedType is the closed set of derived-value kinds (spec §4.9).
type ComputedType string

const (
	ComputedLengthOf         ComputedType = "length_of"
	ComputedCRC32Of          ComputedType = "crc32_of"
	ComputedPositionOf       ComputedType = "position_of"
	ComputedSumOfTypeSizes   ComputedType = "sum_of_type_sizes"
)

// Computed describes how an encoder derives a field's value from the rest
// of the tree, and how a decoder should label it in output (spec §4.9).
type Computed struct {
	Type           ComputedType
	Target         string // path language (package path)
	ElementType    string // for sum_of_type_sizes: the variant type to sum
	FromAfterField string // for length_of: byte count after this sibling field
}

// BitSlice is one named slice inside a `bitfield` container.
type BitSlice struct {
	Name   string
	Offset int
	Size   int
	Signed bool
}

// DiscriminatorKind selects how a union picks its variant.
type DiscriminatorKind string

const (
	DiscriminatorField DiscriminatorKind = "field"
	DiscriminatorPeek  DiscriminatorKind = "peek"
)

// Discriminator is the union's variant-selection rule (spec §4.6).
type Discriminator struct {
	Kind DiscriminatorKind

	// DiscriminatorField
	Field string

	// DiscriminatorPeek
	PeekType       FieldType
	PeekEndianness bitstream.Endianness
}

// Variant is one arm of a discriminated union: a predicate and the type it
// dispatches to.
type Variant struct {
	When string // expression against the discriminator value (identifier "value")
	Type string // referenced type name
}

// Instance is a position-addressed, decode-only lazy field (spec §4.8).
type Instance struct {
	Name string
	// Position is an expression (possibly a bare integer literal) evaluated
	// against the enclosing scope to find the absolute byte offset from
	// _root.
	Position string
	// Size, if non-empty, bounds the instance's sub-stream (also an
	// expression evaluated against the enclosing scope); empty means
	// unbounded (reads through to the end of the buffer).
	Size string
	// Type is the field definition read at Position — usually a TypeRef,
	// but may be any Field shape including an inline discriminated union
	// driven by a sibling (PCF table directory `body` case).
	Type Field
}

// Field is one entry in a composite type's sequence. Only the attribute
// group matching Type is meaningful; the rest are zero values.
type Field struct {
	Name string
	Type FieldType

	// Endianness overrides the schema/document default for this field only.
	Endianness bitstream.Endianness

	// Modifiers (spec §3 "Modifiers on any field").
	Const       any // fixed value; mutually exclusive with Computed
	HasConst    bool
	Conditional string // expr string; empty means always present
	Computed    *Computed
	Description string

	// bit / int bit-slice (TypeBit)
	Size   int // width in bits
	Signed bool

	// bitfield container (TypeBitfield)
	BitfieldSize   int
	BitfieldFields []BitSlice

	// varlength (TypeVarlength)
	VarlengthEncoding VarlengthEncoding

	// string (TypeString)
	StringKind     StringKind
	StringEncoding StringEncoding
	LengthType     FieldType // for length_prefixed
	FixedLength    int       // for fixed

	// array (TypeArray)
	ArrayKind        ArrayKind
	Items            *Field    // item type definition
	ItemLengthType   FieldType // length_prefixed_items: per-item byte length prefix type
	// LengthType is reused here for length_prefixed / byte_length_prefixed's
	// count/byte-length prefix type (arrays and strings never share one Field).
	ArrayVarlengthLength bool // byte_length_prefixed measured via varlength instead of a fixed LengthType
	FixedCount       int       // fixed: exact item count
	LengthField      string    // field_referenced: sibling/qualified field naming the count
	CountExpr        string    // computed_count
	TerminatorType   FieldType // signature_terminated: peeked type
	TerminatorValue  uint64    // signature_terminated: expected value
	TerminalVariants []string  // null_terminated / variant_terminated: type names that end the array

	// optional (TypeOptional)
	ValueType    *Field
	PresenceType FieldType // uint8 | bit

	// padding (TypePadding)
	AlignTo int

	// back_reference (TypeBackReference)
	Storage    FieldType
	OffsetMask uint64
	OffsetFrom OffsetFrom
	TargetType string

	// type_ref (TypeRef) — reference to another named type, optionally
	// generic (Name<T>).
	RefType     string
	RefTypeArgs []string
}

// TypeDefKind is the oneof tag for a named type definition (spec §3).
type TypeDefKind string

const (
	DefComposite TypeDefKind = "composite"
	DefAlias     TypeDefKind = "alias"
	DefUnion     TypeDefKind = "union"
)

// TypeDef is one named entry in a Document's type table.
type TypeDef struct {
	Name string
	Kind TypeDefKind

	// DefComposite
	Sequence  []Field
	Instances []Instance

	// DefAlias
	AliasOf *Field

	// DefUnion
	Discriminator Discriminator
	Variants      []Variant
}

// Config holds the schema-wide defaults (spec §3).
type Config struct {
	Endianness bitstream.Endianness
	BitOrder   bitstream.BitOrder
}

// Document is a fully loaded, not-yet-validated schema: configuration plus
// an ordered mapping from type name to type definition.
type Document struct {
	Config    Config
	TypeOrder []string
	Types     map[string]*TypeDef
}

// Lookup returns the named type, or nil if undefined.
func (d *Document) Lookup(name string) *TypeDef {
	if d.Types == nil {
		return nil
	}
	return d.Types[name]
}
