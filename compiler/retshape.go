package compiler

import (
	"strings"

	"github.com/wudi/imp/ir"
)

// parseRetShape implements the retshape string grammar: "scalar" and
// "any" case-insensitively, "either(a,b,...)" / "record(a,b,...)" with
// a comma-separated tag/field list, and anything unrecognized falls
// back to Any without erroring — retshape is a convenience annotation,
// not a hard compile-time gate.
func parseRetShape(raw string) ir.RetShape {
	trimmed := strings.TrimSpace(raw)
	lower := strings.ToLower(trimmed)

	switch {
	case lower == "scalar":
		return ir.ScalarShape()
	case lower == "any" || lower == "":
		return ir.AnyShape()
	case strings.HasPrefix(lower, "either(") && strings.HasSuffix(lower, ")"):
		inner := trimmed[len("either(") : len(trimmed)-1]
		return ir.EitherShape(ir.ParseCSV(inner))
	case strings.HasPrefix(lower, "record(") && strings.HasSuffix(lower, ")"):
		inner := trimmed[len("record(") : len(trimmed)-1]
		return ir.RecordShape(ir.ParseCSV(inner))
	default:
		return ir.AnyShape()
	}
}
