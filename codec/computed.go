package codec

import (
	"hash/crc32"

	"github.com/serialexp/binschema-sub003/bserr"
	"github.com/serialexp/binschema-sub003/path"
)

// layoutEntry records where one field landed in the measurement-pass buffer,
// the raw material every computed field resolves against (spec §4.9
// "layout map").
type layoutEntry struct {
	start, end int // byte offsets, half-open
	elements   int // item count; -1 for non-array fields
}

// arrayFrame tracks one array field's per-variant occurrence order so a
// computed field elsewhere in the tree can resolve `sections[first<T>]` /
// `sections[corresponding<T>]` selectors against it (spec §4.9
// "cross-element correlation for choice arrays"). It is registered into the
// pass under its absolute path and looked up from anywhere in the tree —
// encode order visits an array's own computed siblings before or after the
// array itself depending on schema order, so lookup cannot rely on a
// lexical stack alone.
type arrayFrame struct {
	path   string
	byType map[string][]string // variant type name -> ordered absolute item paths
}

// pass is the shared state of one measurement or real encode pass over a
// whole record.
type pass struct {
	measuring bool
	layout    map[string]layoutEntry
	arrays    map[string]*arrayFrame // absolute path -> frame, pass-global
	buf       []byte                 // measurement-pass output, used during the real pass
}

func newMeasurementPass() *pass {
	return &pass{measuring: true, layout: map[string]layoutEntry{}, arrays: map[string]*arrayFrame{}}
}

func newRealPass(layout map[string]layoutEntry) *pass {
	return &pass{measuring: false, layout: layout, arrays: map[string]*arrayFrame{}}
}

// encCtx threads per-position state through one recursive encode call: the
// active pass, the absolute path stack (for parent/_root/plain resolution),
// the innermost enclosing array frame (for registering item occurrences),
// and, when currently inside an array item, that item's own variant type
// and occurrence index (needed by corresponding<T>/same_index<T>).
type encCtx struct {
	p            *pass
	prefixStack  []string
	enclosing    *arrayFrame
	itemType     string
	itemTypeOccr int
	haveItem     bool
}

// enter appends an already fully-qualified path (the same dotted path used
// for error reporting and layout keys) as a new scope level, for descending
// into a nested composite. The enclosing array item's variant type and
// occurrence carry over, so computed fields inside the item can use
// corresponding<T>/same_index<T>.
func (c *encCtx) enter(path string) *encCtx {
	nc := *c
	nc.prefixStack = append(append([]string{}, c.prefixStack...), path)
	return &nc
}

func (c *encCtx) currentPath() string {
	if len(c.prefixStack) == 0 {
		return ""
	}
	return c.prefixStack[len(c.prefixStack)-1]
}

// pushArray registers a new array frame under the field's fully-qualified
// path and returns a context for encoding that array's items.
func (c *encCtx) pushArray(fieldPath string) *encCtx {
	frame := &arrayFrame{path: fieldPath, byType: map[string][]string{}}
	c.p.arrays[fieldPath] = frame
	nc := *c
	nc.enclosing = frame
	return &nc
}

// enterItem records item's absolute path under the enclosing array frame's
// per-type occurrence list and returns a child context scoped to that item.
func (c *encCtx) enterItem(itemPath, variantType string) *encCtx {
	nc := *c
	nc.prefixStack = append(append([]string{}, c.prefixStack...), itemPath)
	occr := 0
	if c.enclosing != nil {
		occr = len(c.enclosing.byType[variantType])
		c.enclosing.byType[variantType] = append(c.enclosing.byType[variantType], itemPath)
	}
	nc.itemType = variantType
	nc.itemTypeOccr = occr
	nc.haveItem = true
	nc.enclosing = nil
	return &nc
}

func (c *encCtx) record(fieldPath string, start, end, elements int) {
	c.p.layout[fieldPath] = layoutEntry{start: start, end: end, elements: elements}
}

// resolveComputed evaluates a Computed attribute against the context's
// layout map (real pass only) and returns the derived value.
func resolveComputed(ctx *encCtx, c *Computed, buf []byte, fieldPath string) (uint64, error) {
	switch c.Type {
	case ComputedLengthOf:
		if c.FromAfterField != "" {
			sib, err := ctx.resolvePath(c.FromAfterField)
			if err != nil {
				return 0, err
			}
			sibEntry, ok := ctx.p.layout[sib]
			if !ok {
				return 0, bserr.New(bserr.KindSchemaInvalid, fieldPath, "from_after_field %q not in layout", c.FromAfterField)
			}
			return uint64(len(buf) - sibEntry.end), nil
		}
		tgt, err := ctx.resolvePath(c.Target)
		if err != nil {
			return 0, err
		}
		entry, ok := ctx.p.layout[tgt]
		if !ok {
			return 0, bserr.New(bserr.KindSchemaInvalid, fieldPath, "length_of target %q not in layout", c.Target)
		}
		if entry.elements >= 0 {
			return uint64(entry.elements), nil
		}
		return uint64(entry.end - entry.start), nil

	case ComputedCRC32Of:
		tgt, err := ctx.resolvePath(c.Target)
		if err != nil {
			return 0, err
		}
		entry, ok := ctx.p.layout[tgt]
		if !ok {
			return 0, bserr.New(bserr.KindSchemaInvalid, fieldPath, "crc32_of target %q not in layout", c.Target)
		}
		return uint64(crc32.ChecksumIEEE(buf[entry.start:entry.end])), nil

	case ComputedPositionOf:
		tgt, err := ctx.resolvePath(c.Target)
		if err != nil {
			return 0, err
		}
		entry, ok := ctx.p.layout[tgt]
		if !ok {
			return 0, bserr.New(bserr.KindSchemaInvalid, fieldPath, "position_of target %q not in layout", c.Target)
		}
		return uint64(entry.start), nil

	case ComputedSumOfTypeSizes:
		frame := ctx.findArrayByName(c.Target)
		if frame == nil {
			return 0, bserr.New(bserr.KindSchemaInvalid, fieldPath, "sum_of_type_sizes: array %q not in scope", c.Target)
		}
		var sum uint64
		for _, itemPath := range frame.byType[c.ElementType] {
			entry, ok := ctx.p.layout[itemPath]
			if !ok {
				continue
			}
			sum += uint64(entry.end - entry.start)
		}
		return sum, nil
	}
	return 0, bserr.New(bserr.KindSchemaInvalid, fieldPath, "unknown computed type %q", c.Type)
}

// findArrayByName looks for an array field named name reachable from the
// current path by walking outward through enclosing composite prefixes,
// innermost first.
func (c *encCtx) findArrayByName(name string) *arrayFrame {
	for i := len(c.prefixStack) - 1; i >= 0; i-- {
		if frame, ok := c.p.arrays[c.prefixStack[i]+"."+name]; ok {
			return frame
		}
	}
	return nil
}

// resolvePath compiles and resolves a target-path string (spec §4.9) to an
// absolute dotted path string usable as a layout-map key.
func (c *encCtx) resolvePath(target string) (string, error) {
	p, err := path.Parse(target)
	if err != nil {
		return "", bserr.New(bserr.KindSchemaInvalid, "", "invalid target path %q: %v", target, err)
	}
	prefix := c.prefixStack
	if len(prefix) == 0 {
		prefix = []string{""}
	}
	cur := prefix[len(prefix)-1]
	depth := len(prefix) - 1
	itemOccr, haveItem := c.itemTypeOccr, c.haveItem

	for _, seg := range p {
		switch seg.Kind {
		case path.SegUp:
			if depth > 0 {
				depth--
				cur = prefix[depth]
			}
		case path.SegRoot:
			depth = 0
			cur = prefix[0]
		case path.SegField:
			cur = cur + "." + seg.Name
		case path.SegIndex:
			frame := c.findArrayByName(seg.ArrayField)
			if frame == nil {
				return "", bserr.New(bserr.KindSchemaInvalid, "", "array %q not reachable from %q", seg.ArrayField, target)
			}
			switch seg.IndexKind {
			case path.IndexFirst:
				items := frame.byType[seg.ElementType]
				if len(items) == 0 {
					return "", bserr.New(bserr.KindSchemaInvalid, "", "no %q items found in array %q", seg.ElementType, seg.ArrayField)
				}
				cur = items[0]
			case path.IndexCorresponding, path.IndexSameIndex:
				if !haveItem {
					return "", bserr.New(bserr.KindSchemaInvalid, "", "%s selector used outside an array item", seg.IndexKind)
				}
				items := frame.byType[seg.ElementType]
				if itemOccr >= len(items) {
					return "", bserr.New(bserr.KindSchemaInvalid, "", "no corresponding %q item at occurrence %d", seg.ElementType, itemOccr)
				}
				cur = items[itemOccr]
			}
		}
	}
	return cur, nil
}
