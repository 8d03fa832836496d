package registry

import (
	"strconv"
	"strings"

	"github.com/turbolent/prettier"
)

const (
	docLineWidth = 80
	docIndent    = "  "
)

var fieldSeparatorDoc prettier.Doc = prettier.Concat{
	prettier.Text(","),
	prettier.Line{},
}

func idDoc(id TypeID) prettier.Doc {
	return prettier.Text("#" + strconv.FormatUint(uint64(id), 10))
}

// Doc renders an entry for inspection.
func (t Type) Doc() prettier.Doc {
	var doc prettier.Concat
	if len(t.Path) > 0 {
		doc = append(doc, prettier.Text(strings.Join(t.Path, "::")), prettier.Space)
	}
	doc = append(doc, defDoc(t.Def))
	return doc
}

func defDoc(def TypeDef) prettier.Doc {
	switch d := def.(type) {
	case DefPrimitive:
		return prettier.Text(d.Prim.String())
	case DefArray:
		return prettier.Concat{
			prettier.Text("["),
			idDoc(d.Elem),
			prettier.Text("; " + strconv.FormatUint(uint64(d.Len), 10) + "]"),
		}
	case DefSequence:
		return prettier.Concat{prettier.Text("Vec<"), idDoc(d.Elem), prettier.Text(">")}
	case DefComposite:
		if len(d.Fields) == 0 {
			return prettier.Text("()")
		}
		fields := make([]prettier.Doc, len(d.Fields))
		for i, f := range d.Fields {
			var fd prettier.Concat
			if f.Name != "" {
				fd = append(fd, prettier.Text(f.Name+":"), prettier.Space)
			}
			fd = append(fd, idDoc(f.Type))
			if f.TypeName != "" {
				fd = append(fd, prettier.Text(" /* "+f.TypeName+" */"))
			}
			fields[i] = fd
		}
		return prettier.WrapBraces(
			prettier.Join(fieldSeparatorDoc, fields...),
			prettier.Line{},
		)
	case DefVariant:
		if len(d.Variants) == 0 {
			return prettier.Text("enum {}")
		}
		variants := make([]prettier.Doc, len(d.Variants))
		for i, v := range d.Variants {
			variants[i] = prettier.Text(v.Name + " = " + strconv.Itoa(int(v.Index)))
		}
		return prettier.Concat{
			prettier.Text("enum"),
			prettier.Space,
			prettier.WrapBraces(
				prettier.Join(fieldSeparatorDoc, variants...),
				prettier.Line{},
			),
		}
	default:
		return prettier.Text("<invalid>")
	}
}

// String renders the entry on one line when it fits.
func (t Type) String() string {
	var b strings.Builder
	prettier.Prettier(&b, t.Doc(), docLineWidth, docIndent)
	return b.String()
}

// Doc renders the whole registry, one entry per line.
func (r *Registry) Doc() prettier.Doc {
	lines := make([]prettier.Doc, 0, len(r.types))
	for i, t := range r.types {
		lines = append(lines, prettier.Group{
			Doc: prettier.Concat{
				idDoc(TypeID(i)),
				prettier.Text(" ="),
				prettier.Indent{Doc: prettier.Concat{prettier.Line{}, t.Doc()}},
			},
		})
	}
	return prettier.Join(prettier.HardLine{}, lines...)
}

// String renders the registry listing.
func (r *Registry) String() string {
	var b strings.Builder
	prettier.Prettier(&b, r.Doc(), docLineWidth, docIndent)
	return b.String()
}
