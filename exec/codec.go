package exec

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/druta/errors"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("exec: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

type header struct {
	Command string `json:"command" yaml:"command" cbor:"command"`
}

// MarshalJSON encodes an absent list as [] rather than null.
func (c Code) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Instruction(c))
}

// UnmarshalJSON decodes each element by its command.
func (c *Code) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	out := make(Code, 0, len(raws))
	for i, raw := range raws {
		var h header
		if err := json.Unmarshal(raw, &h); err != nil {
			return fmt.Errorf("instruction %d: %w", i, err)
		}
		if h.Command == "" {
			return fmt.Errorf("instruction %d: missing command", i)
		}
		ins := newInstruction(h.Command)
		if err := json.Unmarshal(raw, ins); err != nil {
			return fmt.Errorf("instruction %d (%s): %w", i, h.Command, err)
		}
		out = append(out, ins)
	}
	*c = out
	return nil
}

// MarshalYAML encodes an absent list as an empty sequence.
func (c Code) MarshalYAML() (any, error) {
	if c == nil {
		return []Instruction{}, nil
	}
	return []Instruction(c), nil
}

// UnmarshalYAML decodes each sequence element by its command.
func (c *Code) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode && n.Tag == "!!null" {
		*c = nil
		return nil
	}
	if n.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: code must be a sequence", n.Line)
	}
	out := make(Code, 0, len(n.Content))
	for i, item := range n.Content {
		var h header
		if err := item.Decode(&h); err != nil {
			return fmt.Errorf("instruction %d: %w", i, err)
		}
		if h.Command == "" {
			return fmt.Errorf("line %d: instruction %d: missing command", item.Line, i)
		}
		ins := newInstruction(h.Command)
		if err := item.Decode(ins); err != nil {
			return fmt.Errorf("instruction %d (%s): %w", i, h.Command, err)
		}
		out = append(out, ins)
	}
	*c = out
	return nil
}

// MarshalCBOR encodes an absent list as an empty array.
func (c Code) MarshalCBOR() ([]byte, error) {
	if c == nil {
		return cborEncMode.Marshal([]Instruction{})
	}
	return cborEncMode.Marshal([]Instruction(c))
}

// UnmarshalCBOR decodes each element by its command.
func (c *Code) UnmarshalCBOR(data []byte) error {
	var raws []cbor.RawMessage
	if err := cbor.Unmarshal(data, &raws); err != nil {
		return err
	}
	out := make(Code, 0, len(raws))
	for i, raw := range raws {
		var h header
		if err := cbor.Unmarshal(raw, &h); err != nil {
			return fmt.Errorf("instruction %d: %w", i, err)
		}
		if h.Command == "" {
			return fmt.Errorf("instruction %d: missing command", i)
		}
		ins := newInstruction(h.Command)
		if err := cbor.Unmarshal(raw, ins); err != nil {
			return fmt.Errorf("instruction %d (%s): %w", i, h.Command, err)
		}
		out = append(out, ins)
	}
	*c = out
	return nil
}

// MarshalJSON serializes code as indented JSON.
func MarshalJSON(c Code) ([]byte, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.PhaseSerialize, errors.KindEncode, err, "json")
	}
	return data, nil
}

// UnmarshalJSON parses JSON executable code.
func UnmarshalJSON(data []byte) (Code, error) {
	var c Code
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrap(errors.PhaseSerialize, errors.KindDecode, err, "json")
	}
	return c, nil
}

// MarshalYAML serializes code as YAML.
func MarshalYAML(c Code) ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseSerialize, errors.KindEncode, err, "yaml")
	}
	return data, nil
}

// UnmarshalYAML parses YAML executable code.
func UnmarshalYAML(data []byte) (Code, error) {
	var c Code
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrap(errors.PhaseSerialize, errors.KindDecode, err, "yaml")
	}
	return c, nil
}

// MarshalCBOR serializes code as canonical CBOR. Equal code always
// produces equal bytes.
func MarshalCBOR(c Code) ([]byte, error) {
	data, err := c.MarshalCBOR()
	if err != nil {
		return nil, errors.Wrap(errors.PhaseSerialize, errors.KindEncode, err, "cbor")
	}
	return data, nil
}

// UnmarshalCBOR parses CBOR executable code.
func UnmarshalCBOR(data []byte) (Code, error) {
	var c Code
	if err := cbor.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrap(errors.PhaseSerialize, errors.KindDecode, err, "cbor")
	}
	return c, nil
}
