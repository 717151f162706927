package ast

// NewCast builds an implicit or explicit cast node at pos. Used by the
// analyzer to splice a cast around whichever side of a binary operation
// or assignment needs promotion or narrowing (spec §4.4.3), and by the
// strength-reduction pass's binop construction.
func NewCast(pos Position, typeName string, x Expr) *Cast {
	return &Cast{Base: Base{Position: pos}, TypeName: typeName, X: x}
}

// NewBinOp builds a binary operator node at pos.
func NewBinOp(pos Position, op BinOpKind, left, right Expr) *BinOp {
	return &BinOp{Base: Base{Position: pos}, Op: op, Left: left, Right: right}
}
