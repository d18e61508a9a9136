package compiler

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"minic/pkg/opcode"
	"minic/pkg/value"
)

// FormatVersion is bumped whenever the opcode set or the snapshot layout
// changes incompatibly.
const FormatVersion = 1

var ErrFormatVersion = errors.New("unsupported bytecode format version")

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("compiler: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

type snapshot struct {
	Version      int             `cbor:"1,keyasint"`
	Instructions []byte          `cbor:"2,keyasint"`
	Constants    []snapshotValue `cbor:"3,keyasint"`
	Positions    []Position      `cbor:"4,keyasint,omitempty"`
}

type snapshotValue struct {
	Kind  uint8   `cbor:"k"`
	Int   int64   `cbor:"i,omitempty"`
	Float float64 `cbor:"f,omitempty"`
	Bool  bool    `cbor:"b,omitempty"`
}

// MarshalBinary serializes the bytecode to deterministic CBOR.
func (b *Bytecode) MarshalBinary() ([]byte, error) {
	snap := snapshot{
		Version:      FormatVersion,
		Instructions: b.Instructions,
		Constants:    make([]snapshotValue, len(b.Constants)),
		Positions:    b.Positions,
	}
	for i, c := range b.Constants {
		snap.Constants[i] = snapshotValue{
			Kind:  uint8(c.Kind()),
			Int:   c.Int(),
			Float: c.Float(),
			Bool:  c.Bool(),
		}
	}
	data, err := cborEncMode.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("compiler: marshal bytecode: %w", err)
	}
	return data, nil
}

// UnmarshalBinary restores bytecode written by MarshalBinary.
func (b *Bytecode) UnmarshalBinary(data []byte) error {
	var snap snapshot
	if err := cbor.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("compiler: unmarshal bytecode: %w", err)
	}
	if snap.Version != FormatVersion {
		return fmt.Errorf("compiler: %w: %d", ErrFormatVersion, snap.Version)
	}

	constants := make([]value.Value, len(snap.Constants))
	for i, c := range snap.Constants {
		switch value.Kind(c.Kind) {
		case value.KindInteger:
			constants[i] = value.Integer(c.Int)
		case value.KindFloat:
			constants[i] = value.Float(c.Float)
		case value.KindBool:
			constants[i] = value.Bool(c.Bool)
		default:
			return fmt.Errorf("compiler: unmarshal bytecode: constant %d has invalid kind %d", i, c.Kind)
		}
	}

	b.Instructions = opcode.Instructions(snap.Instructions)
	b.Constants = constants
	b.Positions = snap.Positions
	return nil
}
