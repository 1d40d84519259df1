package codec

import (
	"github.com/serialexp/binschema-sub003/bitstream"
	"github.com/serialexp/binschema-sub003/bserr"
)

// decodeInstance resolves one position-addressed lazy field (spec §4.8): it
// evaluates Position and Size against the enclosing scope, forks a
// sub-stream bounded to that window measured from the outermost record's
// start, and decodes Type there without disturbing the caller's cursor.
func (d *Driver) decodeInstance(s *bitstream.Stream, inst Instance, path string, sc *scope) (Value, error) {
	pos, err := evalExpr(inst.Position, sc)
	if err != nil {
		return nil, bserr.Wrap(bserr.KindExpressionError, path+"."+inst.Name, err)
	}
	size := s.Len() - int(pos)
	if inst.Size != "" {
		sz, err := evalExpr(inst.Size, sc)
		if err != nil {
			return nil, bserr.Wrap(bserr.KindExpressionError, path+"."+inst.Name, err)
		}
		size = int(sz)
	}
	sub, err := s.Fork(int(pos), size)
	if err != nil {
		return nil, bserr.Wrap(bserr.KindPositionOutOfBounds, path+"."+inst.Name, err)
	}
	return d.decodeField(sub, inst.Type, path+"."+inst.Name, sc)
}
