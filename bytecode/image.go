package bytecode

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ---------------------------------------------------------------------------
// Binary image: canonical CBOR encoding of a program
// ---------------------------------------------------------------------------

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

type wireInstruction struct {
	Op  Opcode `cbor:"1,keyasint"`
	Arg string `cbor:"2,keyasint,omitempty"`
}

type wireMethod struct {
	Name string            `cbor:"1,keyasint"`
	Code []wireInstruction `cbor:"2,keyasint"`
}

type wireProgram struct {
	Methods []wireMethod `cbor:"1,keyasint"`
}

// MarshalProgram encodes p as canonical CBOR. Equal programs always
// encode to the same bytes.
func MarshalProgram(p *Program) ([]byte, error) {
	w := wireProgram{Methods: make([]wireMethod, len(p.methods))}
	for i, m := range p.methods {
		wm := wireMethod{Name: m.Name, Code: make([]wireInstruction, len(m.Code))}
		for j, in := range m.Code {
			wm.Code[j] = wireInstruction{Op: in.Op, Arg: in.Arg}
		}
		w.Methods[i] = wm
	}
	return cborEncMode.Marshal(w)
}

// UnmarshalProgram decodes a program written by MarshalProgram.
func UnmarshalProgram(data []byte) (*Program, error) {
	var w wireProgram
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("unmarshal program: %w", err)
	}
	p := NewProgram()
	for _, wm := range w.Methods {
		m := &Method{Name: wm.Name, Code: make([]Instruction, len(wm.Code))}
		for j, in := range wm.Code {
			if !in.Op.Valid() {
				return nil, fmt.Errorf("unmarshal program: %s[%d]: invalid opcode %d", wm.Name, j, in.Op)
			}
			m.Code[j] = Instruction{Op: in.Op, Arg: in.Arg}
		}
		if err := p.Add(m); err != nil {
			return nil, fmt.Errorf("unmarshal program: %w", err)
		}
	}
	return p, nil
}

// Fingerprint returns the SHA-256 of the program's canonical encoding as
// hex. Two generations of the same input have the same fingerprint.
func Fingerprint(p *Program) (string, error) {
	data, err := MarshalProgram(p)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
