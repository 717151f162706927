package bytecode

import (
	"strconv"

	"github.com/civc-lang/civc/internal/ast"
	"github.com/civc-lang/civc/internal/scope"
	"github.com/civc-lang/civc/internal/semantic"
	"github.com/civc-lang/civc/internal/symbol"
	"github.com/civc-lang/civc/internal/types"
)

// Emitter lowers an analyzed program into an Assembly. It reads the
// Analyzer's side tables (resolved symbols, RequiresInitFunction) built by
// the semantic package rather than re-deriving them.
type Emitter struct {
	asm *Assembly
	an  *semantic.Analyzer

	current      *scope.Scope
	labelCounter int

	// currentReturnType is the declared return type of the function body
	// currently being emitted, consulted by emitReturn to pick the typed
	// return opcode (spec §4.6.6).
	currentReturnType types.ValueType
}

// NewEmitter constructs an emitter over an already-analyzed program. an
// must be the same Analyzer that successfully analyzed prog.
func NewEmitter(an *semantic.Analyzer) *Emitter {
	return &Emitter{asm: NewAssembly(), an: an, current: an.Global}
}

// Emit emits an instruction to the main queue when the current scope is
// not global, otherwise to the init queue (spec §4.5).
func (e *Emitter) emit(mnemonic string, args ...string) {
	if e.current.IsGlobal() {
		e.asm.EmitInit(mnemonic, args...)
	} else {
		e.asm.EmitMain(mnemonic, args...)
	}
}

// emitLabel emits a label to whichever queue the emitter is currently
// targeting, mirroring emit's routing: a global-scope array's
// scalar-broadcast initializer (spec §4.6.5) needs its own loop labels in
// the init queue, just as a function body's control flow needs them in Main.
func (e *Emitter) emitLabel(name string, isFunctionLabel bool) {
	if e.current.IsGlobal() {
		e.asm.EmitLabelInit(name, isFunctionLabel)
	} else {
		e.asm.EmitLabelMain(name, isFunctionLabel)
	}
}

// newLabel allocates a globally unique label name (spec §4.6.4).
func (e *Emitter) newLabel(purpose string) string {
	n := e.labelCounter
	e.labelCounter++
	return "_lab" + strconv.Itoa(n) + "_" + purpose
}

// resolved looks up the symbol a prior analysis run attached to n.
func (e *Emitter) resolved(n ast.Node) *symbol.Symbol {
	sym, _ := e.an.ResolvedSymbol(n)
	return sym
}

// ---- Addressing-mode selection (spec §4.6.1) ----

// loadSymbol emits the load sequence for sym, using the emitter's current
// scope as curr.
func (e *Emitter) loadSymbol(sym *symbol.Symbol) {
	e.emitAddressed(sym, false)
}

// storeSymbol emits the store sequence for sym.
func (e *Emitter) storeSymbol(sym *symbol.Symbol) {
	e.emitAddressed(sym, true)
}

func (e *Emitter) emitAddressed(sym *symbol.Symbol, isStore bool) {
	prefix := sym.ValueType.ElementPrefix()
	curr := e.current.NestingLevel()
	home := sym.NestingLevel()
	offset := sym.OffsetInScope

	switch {
	case sym.Imported:
		stem := "loade"
		if isStore {
			stem = "storee"
		}
		e.emit(prefix+stem, strconv.Itoa(offset))

	case home == 0:
		stem := "loadg"
		if isStore {
			stem = "storeg"
		}
		e.emit(prefix+stem, strconv.Itoa(offset))

	case home == curr:
		// Small-offset specializations replace the offset argument
		// (spec §4.6.1) for offsets 0-3 on the plain local stem.
		if offset >= 0 && offset <= 3 {
			stem := "load_"
			if isStore {
				stem = "store_"
			}
			e.emit(prefix+stem+strconv.Itoa(offset))
			return
		}
		stem := "load"
		if isStore {
			stem = "store"
		}
		e.emit(prefix+stem, strconv.Itoa(offset))

	default: // home < curr: relatively free
		delta := curr - home
		stem := "loadn"
		if isStore {
			stem = "storen"
		}
		e.emit(prefix+stem, strconv.Itoa(delta), strconv.Itoa(offset))
	}
}

// ---- Constant loading (spec §4.6.8) ----

func (e *Emitter) loadInt(v int64) {
	switch v {
	case -1:
		e.emit("iloadc_m1")
	case 0:
		e.emit("iloadc_0")
	case 1:
		e.emit("iloadc_1")
	default:
		e.loadConstant(types.Int, strconv.FormatInt(v, 10))
	}
}

func (e *Emitter) loadFloat(lit string, v float64) {
	switch v {
	case 0.0:
		e.emit("floadc_0")
	case 1.0:
		e.emit("floadc_1")
	default:
		e.loadConstant(types.Float, lit)
	}
}

func (e *Emitter) loadBool(v bool) {
	if v {
		e.emit("bloadc_t")
	} else {
		e.emit("bloadc_f")
	}
}

func (e *Emitter) loadConstant(t types.ValueType, literal string) {
	idx := e.asm.EmitConstant(t, literal)
	mnemonic := t.ElementPrefix() + "loadc"
	e.emit(mnemonic, strconv.Itoa(idx))
}

// EmitProgram lowers prog (already analyzed by the Analyzer this Emitter
// was built from) into a complete Assembly.
func EmitProgram(an *semantic.Analyzer, prog *ast.Program) *Assembly {
	e := NewEmitter(an)
	e.emitProgram(prog)
	return e.asm
}
