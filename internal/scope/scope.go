// Package scope implements the scope tree (spec §4.3): nested symbol
// tables linked to their parent, each carrying the offset counters that
// the context analyzer uses to assign storage locations.
package scope

import (
	"fmt"

	"github.com/civc-lang/civc/internal/symbol"
)

// Scope is one symbol table node in the tree. The global scope has
// Parent == nil and NestingLevel() == 0; a for-loop scope shares its
// parent's nesting level instead of opening a new call frame.
type Scope struct {
	parent         *Scope
	parentFunction *symbol.Symbol // nil only for the global scope
	nestingLevel   int
	isForLoop      bool

	// LocalOffsetCounter is the function-body counter described in
	// spec §4.4.2: parameters first, then declarations in source order,
	// then synthetic for-loop variables. For the global scope this tracks
	// GLOBAL_VAR_OFFSET, the implicit init function's locals.
	LocalOffsetCounter int

	// ForLoopCounter numbers for-loop sentinels declared directly in this
	// scope (or, for a for-loop scope, in the function frame it shares).
	// Reset to 0 when its owning function's body finishes emission
	// (spec §9 Open Question 4, confirmed against bytecode.c's BCfundef).
	ForLoopCounter int

	// Global-scope-only counters (spec §4.4.2); zero and unused elsewhere.
	FunImportOffset int
	VarImportOffset int
	FunExportOffset int

	symbols map[string]*symbol.Symbol
	order   []string // insertion order, for deterministic iteration
}

// New creates a scope. parent is nil only for the global scope. parentFn is
// the enclosing function symbol (nil for the global scope). isForLoop
// shares the parent's nesting level instead of incrementing it.
func New(parent *Scope, parentFn *symbol.Symbol, isForLoop bool) *Scope {
	s := &Scope{
		parent:         parent,
		parentFunction: parentFn,
		isForLoop:      isForLoop,
		symbols:        make(map[string]*symbol.Symbol),
	}
	switch {
	case parent == nil:
		s.nestingLevel = 0
	case isForLoop:
		s.nestingLevel = parent.nestingLevel
	default:
		s.nestingLevel = parent.nestingLevel + 1
	}
	return s
}

// NestingLevel implements symbol.Scope.
func (s *Scope) NestingLevel() int { return s.nestingLevel }

// Parent returns the enclosing scope, or nil at the global scope.
func (s *Scope) Parent() *Scope { return s.parent }

// ParentFunction returns the function symbol this scope belongs to, or nil
// at the global scope.
func (s *Scope) ParentFunction() *symbol.Symbol { return s.parentFunction }

// IsGlobal reports whether this is the root scope.
func (s *Scope) IsGlobal() bool { return s.parent == nil }

// Insert binds name to sym in this scope. It fails if name is already
// declared in THIS scope (shadowing of outer scopes is allowed, spec
// §4.4.4). On success sym.ParentScope is set exactly once.
func (s *Scope) Insert(name string, sym *symbol.Symbol) error {
	if _, exists := s.symbols[name]; exists {
		return fmt.Errorf("duplicate symbol %q in this scope", name)
	}
	if sym.ParentScope != nil {
		panic(fmt.Sprintf("scope: symbol %q already has a parent scope", name))
	}
	sym.ParentScope = s
	s.symbols[name] = sym
	s.order = append(s.order, name)
	return nil
}

// LookupLocal searches only this scope.
func (s *Scope) LookupLocal(name string) (*symbol.Symbol, bool) {
	sym, ok := s.symbols[name]
	return sym, ok
}

// LookupInTree walks parent links until name is found or the root is
// reached (spec §4.3's lookup_in_tree, grounded in ScopeTreeFind).
func (s *Scope) LookupInTree(name string) (*symbol.Symbol, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if sym, ok := cur.symbols[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// IsDeclaredInCurrentScope is an alias for LookupLocal's presence check,
// named to match the duplicate-detection call site in the declaration pass.
func (s *Scope) IsDeclaredInCurrentScope(name string) bool {
	_, ok := s.symbols[name]
	return ok
}

// AllSymbols returns every symbol declared directly in this scope, in
// insertion order.
func (s *Scope) AllSymbols() []*symbol.Symbol {
	out := make([]*symbol.Symbol, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.symbols[name])
	}
	return out
}

// frameScope walks up through for-loop scopes (which share rather than own
// a call frame) to the scope that actually owns the counters: the
// enclosing function's scope, or the global scope.
func (s *Scope) frameScope() *Scope {
	cur := s
	for cur.isForLoop && cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

// NextLocalOffset returns the next local offset and advances the counter,
// bubbling up to the owning function frame if called on a for-loop scope
// (spec §4.4.2: for-loop variables "occupy offsets on the enclosing
// function's counter, not a fresh one per loop").
func (s *Scope) NextLocalOffset() int {
	owner := s.frameScope()
	off := owner.LocalOffsetCounter
	owner.LocalOffsetCounter++
	return off
}

// NextForLoopIndex returns the next for-loop counter value in this
// function's frame and advances it, with the same bubbling as
// NextLocalOffset.
func (s *Scope) NextForLoopIndex() int {
	owner := s.frameScope()
	idx := owner.ForLoopCounter
	owner.ForLoopCounter++
	return idx
}

// ResetForLoopCounter zeroes the for-loop counter; called by the emitter
// when a function's body finishes emission (spec §9 Open Question 4).
func (s *Scope) ResetForLoopCounter() {
	s.frameScope().ForLoopCounter = 0
}
