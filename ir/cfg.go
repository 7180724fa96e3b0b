package ir

import (
	"fmt"
)

// BlockID is a stable handle to a block in a CFG's arena.
type BlockID int

// NoBlock marks an absent exit.
const NoBlock BlockID = -1

// BasicBlock is a straight-line run of TAC with up to two successors.
// Only blocks ending in an if test carry a false exit.
type BasicBlock struct {
	ID     BlockID
	Name   string
	Class  string // owning class
	Method string // owning method
	Entry  bool   // first block of Class.Method

	Instrs    []Instr
	TrueExit  BlockID
	FalseExit BlockID
}

// Emit appends an instruction.
func (b *BasicBlock) Emit(in Instr) {
	b.Instrs = append(b.Instrs, in)
}

// HasExit reports whether the block records any successor.
func (b *BasicBlock) HasExit() bool {
	return b.TrueExit != NoBlock || b.FalseExit != NoBlock
}

// last returns the final instruction, if any.
func (b *BasicBlock) last() (Instr, bool) {
	if len(b.Instrs) == 0 {
		return Instr{}, false
	}
	return b.Instrs[len(b.Instrs)-1], true
}

// EndsWithReturn reports whether the block's last instruction is a return.
func (b *BasicBlock) EndsWithReturn() bool {
	in, ok := b.last()
	return ok && in.Op == OpReturn
}

// EndsWithIf reports whether the block's last instruction is an if test.
func (b *BasicBlock) EndsWithIf() bool {
	in, ok := b.last()
	return ok && in.Op == OpIf
}

// CFG owns every block of a program. Blocks reference each other only
// through BlockIDs, so cycles need no special handling.
type CFG struct {
	blocks  []*BasicBlock
	entries map[string]BlockID
	nextAux int
}

// NewCFG creates an empty graph.
func NewCFG() *CFG {
	return &CFG{entries: make(map[string]BlockID)}
}

// Blocks returns blocks in creation order.
func (g *CFG) Blocks() []*BasicBlock {
	return g.blocks
}

// Len returns the number of blocks.
func (g *CFG) Len() int {
	return len(g.blocks)
}

// Block returns the block for id, or nil when id is out of range.
func (g *CFG) Block(id BlockID) *BasicBlock {
	if id < 0 || int(id) >= len(g.blocks) {
		return nil
	}
	return g.blocks[id]
}

// Entry returns the entry block named Class.method.
func (g *CFG) Entry(name string) (*BasicBlock, bool) {
	id, ok := g.entries[name]
	if !ok {
		return nil, false
	}
	return g.blocks[id], true
}

// NewEntryBlock allocates the entry block of class.method.
func (g *CFG) NewEntryBlock(class, method string) *BasicBlock {
	b := g.alloc(class+"."+method, class, method)
	b.Entry = true
	g.entries[b.Name] = b.ID
	return b
}

// NewBlock allocates an auxiliary block named block_N. N is unique across
// the whole graph.
func (g *CFG) NewBlock(class, method string) *BasicBlock {
	name := fmt.Sprintf("block_%d", g.nextAux)
	g.nextAux++
	return g.alloc(name, class, method)
}

func (g *CFG) alloc(name, class, method string) *BasicBlock {
	b := &BasicBlock{
		ID:        BlockID(len(g.blocks)),
		Name:      name,
		Class:     class,
		Method:    method,
		TrueExit:  NoBlock,
		FalseExit: NoBlock,
	}
	g.blocks = append(g.blocks, b)
	return b
}

// Validate checks the exit invariants of every block: an if test has
// both exits, a false exit only follows an if test, a return ends its
// block's control flow, and every exit handle refers to a block.
func (g *CFG) Validate() error {
	for _, b := range g.blocks {
		for _, id := range []BlockID{b.TrueExit, b.FalseExit} {
			if id != NoBlock && g.Block(id) == nil {
				return fmt.Errorf("block %s: exit %d out of range", b.Name, id)
			}
		}
		switch {
		case b.EndsWithIf():
			if b.TrueExit == NoBlock || b.FalseExit == NoBlock {
				return fmt.Errorf("block %s: if test needs both exits", b.Name)
			}
		case b.FalseExit != NoBlock:
			return fmt.Errorf("block %s: false exit without an if test", b.Name)
		case b.EndsWithReturn() && b.TrueExit != NoBlock:
			return fmt.Errorf("block %s: return followed by a jump", b.Name)
		}
		for i, in := range b.Instrs[:max(len(b.Instrs)-1, 0)] {
			if in.Op == OpIf || in.Op == OpReturn {
				return fmt.Errorf("block %s: %s at %d is not the last instruction", b.Name, in.Op, i)
			}
		}
	}
	return nil
}
