package ast

// AnnoSafe is the one recognized macro annotation.
const AnnoSafe = "safe"

// IsCoreTarget reports whether target is handled by the lowering
// table (namespace "core") rather than treated as an implicit invoke.
func (r RefPath) IsCoreTarget() bool {
	return r.Namespace == "core"
}
