package resolve

import (
	"strings"

	"contractmeta/internal/model"
)

// DisplayName returns the source-level name of t as path segments, e.g.
// ["Point"] for a struct or ["uint8[2]"] for an array.
func DisplayName(ns *model.Namespace, t model.Type) []string {
	return []string{displayName(ns, t)}
}

// DisplayString joins DisplayName with "::".
func DisplayString(ns *model.Namespace, t model.Type) string {
	return strings.Join(DisplayName(ns, t), "::")
}

func displayName(ns *model.Namespace, t model.Type) string {
	switch tt := t.(type) {
	case nil:
		return ""
	case model.StructType:
		if s, ok := ns.Struct(tt.No); ok {
			return s.Name
		}
	case model.EnumType:
		if e, ok := ns.Enum(tt.No); ok {
			return e.Name
		}
	case model.UserType:
		if u, ok := ns.UserTypeDecl(tt.No); ok {
			return u.Name
		}
	case model.ContractType:
		if c, ok := ns.Contract(tt.No); ok {
			return c.Name
		}
	case model.RefType:
		return displayName(ns, tt.Inner)
	case model.StorageRefType:
		return displayName(ns, tt.Inner)
	case model.ArrayType:
		var sb strings.Builder
		sb.WriteString(displayName(ns, tt.Elem))
		for _, d := range tt.Dims {
			sb.WriteString(d.String())
		}
		return sb.String()
	case model.FunctionType:
		return "function"
	}
	return t.String()
}
