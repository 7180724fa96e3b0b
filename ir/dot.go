package ir

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"
)

// WriteDot renders the graph in Graphviz dot format. Nodes are numbered by
// block index and labelled with the block name followed by its TAC.
func (g *CFG) WriteDot(w io.Writer) error {
	bw := bufio.NewWriter(w)

	bw.WriteString("digraph G {\n")
	bw.WriteString("graph [splines=ortho];\n")
	bw.WriteString("node [shape=box];\n")

	for i, b := range g.blocks {
		idx := strconv.Itoa(i)
		bw.WriteString(idx + ` [label="` + dotEscape(b.Name) + `\n` + "\n")
		for _, in := range b.Instrs {
			bw.WriteString("    " + dotEscape(in.String()) + "\n")
		}
		bw.WriteString("\"];\n")

		if b.TrueExit != NoBlock {
			bw.WriteString(idx + " -> " + strconv.Itoa(int(b.TrueExit)) + " [xlabel=\"true\"];\n")
		}
		if b.FalseExit != NoBlock {
			bw.WriteString(idx + " -> " + strconv.Itoa(int(b.FalseExit)) + " [xlabel=\"false\"];\n")
		}
	}

	bw.WriteString("}\n")
	return bw.Flush()
}

// WriteDotFile writes the dot rendering to path.
func (g *CFG) WriteDotFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := g.WriteDot(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func dotEscape(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}
