package schema

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/serialexp/binschema-sub003/bitstream"
)

// LoadDocument parses a schema document written as YAML or JSON (JSON is a
// YAML subset, so one parser handles both — the same choice the teacher
// schema package makes with gopkg.in/yaml.v3 in ParseSchema) into a
// Document. LoadDocument does not validate cross-references or invariants;
// call Validate for that (spec §4.2).
//
// Document shape (spec §6):
//
//	{
//	  "config": {"endianness": "big_endian", "bit_order": "msb_first"},
//	  "types": {
//	    "Point": {"sequence": [{"name":"x","type":"uint16"}, ...]},
//	    "Label": {"alias": {"type":"string", "kind":"null_terminated", ...}},
//	    "Msg":   {"discriminator": {...}, "variants": [...]}
//	  }
//	}
func LoadDocument(data []byte) (*Document, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("schema: parse document: %w", err)
	}

	doc := &Document{
		Types: make(map[string]*TypeDef),
	}

	if cfgRaw, ok := raw["config"].(map[string]any); ok {
		doc.Config = parseConfig(cfgRaw)
	} else {
		doc.Config = Config{Endianness: bitstream.BigEndian, BitOrder: bitstream.MSBFirst}
	}

	typesRaw, _ := raw["types"].(map[string]any)
	// Preserve declaration order by re-walking the yaml.Node tree for the
	// "types" mapping, the way the teacher's extractModOrder/findFieldNodes
	// recover YAML key order that a plain map[string]any loses.
	order := typeOrderFromDocument(data)
	if len(order) == 0 {
		for name := range typesRaw {
			order = append(order, name)
		}
	}

	for _, name := range order {
		tRaw, ok := typesRaw[name].(map[string]any)
		if !ok {
			continue
		}
		def, err := parseTypeDef(name, tRaw)
		if err != nil {
			return nil, fmt.Errorf("schema: type %q: %w", name, err)
		}
		doc.Types[name] = def
		doc.TypeOrder = append(doc.TypeOrder, name)
	}

	return doc, nil
}

// typeOrderFromDocument recovers the author's key order for the top-level
// "types" mapping by walking the raw yaml.Node tree, mirroring the teacher's
// findFieldNodes helper (go/schema/schema.go).
func typeOrderFromDocument(data []byte) []string {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil
	}
	node := &root
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i < len(node.Content)-1; i += 2 {
		if node.Content[i].Value != "types" {
			continue
		}
		typesNode := node.Content[i+1]
		if typesNode.Kind != yaml.MappingNode {
			return nil
		}
		var order []string
		for j := 0; j < len(typesNode.Content)-1; j += 2 {
			order = append(order, typesNode.Content[j].Value)
		}
		return order
	}
	return nil
}

func parseConfig(m map[string]any) Config {
	cfg := Config{Endianness: bitstream.BigEndian, BitOrder: bitstream.MSBFirst}
	if v, ok := m["endianness"].(string); ok && v != "" {
		cfg.Endianness = bitstream.Endianness(v)
	}
	if v, ok := m["bit_order"].(string); ok && v != "" {
		cfg.BitOrder = bitstream.BitOrder(v)
	}
	return cfg
}

func parseTypeDef(name string, m map[string]any) (*TypeDef, error) {
	def := &TypeDef{Name: name}

	switch {
	case m["sequence"] != nil:
		def.Kind = DefComposite
		seq, _ := m["sequence"].([]any)
		for i, raw := range seq {
			fm, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("sequence[%d]: not an object", i)
			}
			f, err := parseField(fm)
			if err != nil {
				return nil, fmt.Errorf("sequence[%d]: %w", i, err)
			}
			def.Sequence = append(def.Sequence, f)
		}
		if instRaw, ok := m["instances"].([]any); ok {
			for i, raw := range instRaw {
				im, ok := raw.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("instances[%d]: not an object", i)
				}
				inst, err := parseInstance(im)
				if err != nil {
					return nil, fmt.Errorf("instances[%d]: %w", i, err)
				}
				def.Instances = append(def.Instances, inst)
			}
		}

	case m["alias"] != nil:
		def.Kind = DefAlias
		am, ok := m["alias"].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("alias: not an object")
		}
		f, err := parseField(am)
		if err != nil {
			return nil, err
		}
		def.AliasOf = &f

	case m["discriminator"] != nil:
		def.Kind = DefUnion
		dm, ok := m["discriminator"].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("discriminator: not an object")
		}
		disc, err := parseDiscriminator(dm)
		if err != nil {
			return nil, err
		}
		def.Discriminator = disc
		variants, _ := m["variants"].([]any)
		for i, raw := range variants {
			vm, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("variants[%d]: not an object", i)
			}
			def.Variants = append(def.Variants, Variant{
				When: stringOf(vm["when"]),
				Type: stringOf(vm["type"]),
			})
		}

	default:
		return nil, fmt.Errorf("type definition must have one of sequence, alias, discriminator")
	}

	return def, nil
}

func parseDiscriminator(m map[string]any) (Discriminator, error) {
	if f, ok := m["field"].(string); ok && f != "" {
		return Discriminator{Kind: DiscriminatorField, Field: f}, nil
	}
	if peekType, ok := m["peek_type"].(string); ok && peekType != "" {
		return Discriminator{
			Kind:           DiscriminatorPeek,
			PeekType:       FieldType(peekType),
			PeekEndianness: bitstream.Endianness(stringOf(m["endianness"])),
		}, nil
	}
	return Discriminator{}, fmt.Errorf("discriminator requires \"field\" or \"peek_type\"")
}

func parseInstance(m map[string]any) (Instance, error) {
	inst := Instance{
		Name:     stringOf(m["name"]),
		Position: stringOfAny(m["position"]),
		Size:     stringOfAny(m["size"]),
	}
	typeRaw, ok := m["type"].(map[string]any)
	if !ok {
		return Instance{}, fmt.Errorf("instance %q: missing type", inst.Name)
	}
	f, err := parseField(typeRaw)
	if err != nil {
		return Instance{}, err
	}
	inst.Type = f
	return inst, nil
}

// parseField converts one raw field object into a Field. Kept in the shape
// of the teacher's parseFieldMap: a single function that switches on the
// "type" key and fills in whichever attribute group applies.
func parseField(m map[string]any) (Field, error) {
	f := Field{
		Name:        stringOf(m["name"]),
		Type:        FieldType(stringOf(m["type"])),
		Endianness:  bitstream.Endianness(stringOf(m["endianness"])),
		Conditional: stringOf(m["conditional"]),
		Description: stringOf(m["description"]),
	}

	if raw, present := m["const"]; present {
		f.HasConst = true
		f.Const = raw
	}
	if cm, ok := m["computed"].(map[string]any); ok {
		c, err := parseComputed(cm)
		if err != nil {
			return Field{}, err
		}
		f.Computed = c
	}

	switch f.Type {
	case TypeBit:
		f.Size = intOf(m["size"])
		f.Signed = boolOf(m["signed"])

	case TypeBitfield:
		f.BitfieldSize = intOf(m["size"])
		if fieldsRaw, ok := m["fields"].([]any); ok {
			for _, raw := range fieldsRaw {
				bm, ok := raw.(map[string]any)
				if !ok {
					continue
				}
				f.BitfieldFields = append(f.BitfieldFields, BitSlice{
					Name:   stringOf(bm["name"]),
					Offset: intOf(bm["offset"]),
					Size:   intOf(bm["size"]),
					Signed: boolOf(bm["signed"]),
				})
			}
		}

	case TypeVarlength:
		f.VarlengthEncoding = VarlengthEncoding(stringOf(m["encoding"]))

	case TypeString:
		f.StringKind = StringKind(stringOf(m["kind"]))
		f.StringEncoding = StringEncoding(stringOf(m["encoding"]))
		if f.StringEncoding == "" {
			f.StringEncoding = EncodingUTF8
		}
		f.LengthType = FieldType(stringOf(m["length_type"]))
		f.FixedLength = intOf(m["length"])
		f.LengthField = stringOf(m["length_field"])

	case TypeArray:
		f.ArrayKind = ArrayKind(stringOf(m["kind"]))
		if itemsRaw, ok := m["items"].(map[string]any); ok {
			item, err := parseField(itemsRaw)
			if err != nil {
				return Field{}, fmt.Errorf("items: %w", err)
			}
			f.Items = &item
		}
		f.ItemLengthType = FieldType(stringOf(m["item_length_type"]))
		f.LengthType = FieldType(stringOf(m["length_type"]))
		if _, ok := m["length"]; ok {
			switch v := m["length"].(type) {
			case string:
				f.LengthField = v // a fixed array may size itself from a field reference too
			default:
				f.FixedCount = intOf(v)
			}
		}
		if _, ok := m["varlength"]; ok {
			f.ArrayVarlengthLength = boolOf(m["varlength"])
		}
		f.LengthField = firstNonEmpty(f.LengthField, stringOf(m["length_field"]))
		f.CountExpr = stringOf(m["count_expr"])
		f.TerminatorType = FieldType(stringOf(m["terminator_type"]))
		if v, ok := m["terminator_value"]; ok {
			f.TerminatorValue = uint64(intOf(v))
		}
		if tv, ok := m["terminal_variants"].([]any); ok {
			for _, v := range tv {
				f.TerminalVariants = append(f.TerminalVariants, stringOf(v))
			}
		}

	case TypeOptional:
		if vt, ok := m["value_type"].(map[string]any); ok {
			v, err := parseField(vt)
			if err != nil {
				return Field{}, fmt.Errorf("value_type: %w", err)
			}
			f.ValueType = &v
		}
		f.PresenceType = FieldType(stringOf(m["presence_type"]))
		if f.PresenceType == "" {
			f.PresenceType = TypeUint8
		}

	case TypePadding:
		f.AlignTo = intOf(m["align_to"])

	case TypeBackReference:
		f.Storage = FieldType(stringOf(m["storage"]))
		if v, ok := m["offset_mask"]; ok {
			f.OffsetMask = uint64(intOf(v))
		} else {
			f.OffsetMask = ^uint64(0)
		}
		f.OffsetFrom = OffsetFrom(stringOf(m["offset_from"]))
		f.TargetType = stringOf(m["target_type"])

	default:
		if !f.Type.IsPrimitive() {
			// A bare type name (possibly generic, Name<T>) references another
			// defined type.
			f.RefType, f.RefTypeArgs = parseTypeReference(string(f.Type))
			f.Type = TypeRef
		}
	}

	return f, nil
}

func parseComputed(m map[string]any) (*Computed, error) {
	c := &Computed{
		Type:           ComputedType(stringOf(m["type"])),
		Target:         stringOf(m["target"]),
		ElementType:    stringOf(m["element_type"]),
		FromAfterField: stringOf(m["from_after_field"]),
	}
	switch c.Type {
	case ComputedLengthOf, ComputedCRC32Of, ComputedPositionOf, ComputedSumOfTypeSizes:
	default:
		return nil, fmt.Errorf("unknown computed.type %q", c.Type)
	}
	return c, nil
}

// parseTypeReference splits "Name<T>" into ("Name", ["T"]).
func parseTypeReference(s string) (string, []string) {
	lt := strings.IndexByte(s, '<')
	if lt < 0 {
		return s, nil
	}
	gt := strings.LastIndexByte(s, '>')
	if gt < lt {
		return s, nil
	}
	name := s[:lt]
	argsStr := s[lt+1 : gt]
	var args []string
	for _, a := range strings.Split(argsStr, ",") {
		args = append(args, strings.TrimSpace(a))
	}
	return name, args
}

func stringOf(v any) string {
	s, _ := v.(string)
	return s
}

// stringOfAny stringifies values that the spec allows as either a literal
// integer or an expression string (e.g. an instance's position/size).
func stringOfAny(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatInt(int64(t), 10)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func boolOf(v any) bool {
	b, _ := v.(bool)
	return b
}

// intOf converts a YAML/JSON-decoded scalar to int, accepting decimal,
// 0x-hex strings (spec §6: "All integer constants may be written as decimal
// or 0x… hex") and YAML's native int/float64 decoding of bare numbers.
func intOf(v any) int {
	return int(int64Of(v))
}

func int64Of(v any) int64 {
	switch t := v.(type) {
	case int:
		return int64(t)
	case int64:
		return t
	case uint64:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		n, err := strconv.ParseInt(t, 0, 64)
		if err == nil {
			return n
		}
		return 0
	default:
		return 0
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
