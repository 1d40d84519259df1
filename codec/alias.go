package codec

import "github.com/serialexp/binschema-sub003/schema"

// Local aliases keep the codec package from repeating the schema. prefix on
// every dispatch switch, the same way the teacher schema package keeps all
// its FieldType constants unqualified within one package.
type (
	Field             = schema.Field
	FieldType         = schema.FieldType
	TypeDef           = schema.TypeDef
	Document          = schema.Document
	Validated         = schema.Validated
	ArrayKind         = schema.ArrayKind
	StringKind        = schema.StringKind
	StringEncoding    = schema.StringEncoding
	VarlengthEncoding = schema.VarlengthEncoding
	ComputedType      = schema.ComputedType
	Discriminator     = schema.Discriminator
	Variant           = schema.Variant
	Instance          = schema.Instance
	OffsetFrom        = schema.OffsetFrom
	Computed          = schema.Computed
	BitSlice          = schema.BitSlice
)

const (
	VarlengthDER    = schema.VarlengthDER
	VarlengthLEB128 = schema.VarlengthLEB128

	StringLengthPrefixed  = schema.StringLengthPrefixed
	StringNullTerminated  = schema.StringNullTerminated
	StringFixed           = schema.StringFixed
	StringFieldReferenced = schema.StringFieldReferenced

	EncodingASCII = schema.EncodingASCII
	EncodingUTF8  = schema.EncodingUTF8

	ArrayFixed               = schema.ArrayFixed
	ArrayLengthPrefixed      = schema.ArrayLengthPrefixed
	ArrayLengthPrefixedItems = schema.ArrayLengthPrefixedItems
	ArrayByteLengthPrefixed  = schema.ArrayByteLengthPrefixed
	ArrayFieldReferenced     = schema.ArrayFieldReferenced
	ArrayComputedCount       = schema.ArrayComputedCount
	ArrayNullTerminated      = schema.ArrayNullTerminated
	ArraySignatureTerminated = schema.ArraySignatureTerminated
	ArrayVariantTerminated   = schema.ArrayVariantTerminated
	ArrayEOFTerminated       = schema.ArrayEOFTerminated
	ArrayGreedy              = schema.ArrayGreedy

	TypeUint8         = schema.TypeUint8
	TypeUint16        = schema.TypeUint16
	TypeUint32        = schema.TypeUint32
	TypeUint64        = schema.TypeUint64
	TypeInt8          = schema.TypeInt8
	TypeInt16         = schema.TypeInt16
	TypeInt32         = schema.TypeInt32
	TypeInt64         = schema.TypeInt64
	TypeFloat32       = schema.TypeFloat32
	TypeFloat64       = schema.TypeFloat64
	TypeBit           = schema.TypeBit
	TypeBitfield      = schema.TypeBitfield
	TypeVarlength     = schema.TypeVarlength
	TypeString        = schema.TypeString
	TypeArray         = schema.TypeArray
	TypeOptional      = schema.TypeOptional
	TypePadding       = schema.TypePadding
	TypeBackReference = schema.TypeBackReference
	TypeRef           = schema.TypeRef

	ComputedLengthOf       = schema.ComputedLengthOf
	ComputedCRC32Of        = schema.ComputedCRC32Of
	ComputedPositionOf     = schema.ComputedPositionOf
	ComputedSumOfTypeSizes = schema.ComputedSumOfTypeSizes

	DiscriminatorField = schema.DiscriminatorField
	DiscriminatorPeek  = schema.DiscriminatorPeek

	OffsetMessageStart    = schema.OffsetMessageStart
	OffsetCurrentPosition = schema.OffsetCurrentPosition

	DefComposite = schema.DefComposite
	DefAlias     = schema.DefAlias
	DefUnion     = schema.DefUnion
)
