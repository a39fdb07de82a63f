package main

import (
	"fmt"
	"strings"

	"github.com/wippyai/druta/config"
	"github.com/wippyai/druta/exec"
	"github.com/wippyai/druta/transform"
)

// formatOutput encodes a compile result in one of the configured output
// formats.
func formatOutput(out *transform.Output, format string) ([]byte, error) {
	switch format {
	case config.FormatJSON, "":
		data, err := exec.MarshalJSON(out.Code)
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case config.FormatYAML:
		return exec.MarshalYAML(out.Code)
	case config.FormatCBOR:
		return exec.MarshalCBOR(out.Code)
	case config.FormatTree:
		return []byte(exec.Tree(out.Code)), nil
	case config.FormatSource:
		return []byte(out.Source + "\n"), nil
	case config.FormatAll:
		code, err := exec.MarshalJSON(out.Code)
		if err != nil {
			return nil, err
		}
		var b strings.Builder
		b.WriteString("// rewritten source\n")
		b.WriteString(out.Source)
		b.WriteString("\n\n// executable code\n")
		b.Write(code)
		b.WriteString("\n\n// locals: ")
		b.WriteString(strings.Join(out.Locals, ", "))
		b.WriteByte('\n')
		return []byte(b.String()), nil
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}
