package metadata

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/goccy/go-yaml"
	"github.com/tidwall/pretty"
)

// Format is a descriptor encoding.
type Format uint8

const (
	FormatJSON Format = iota
	FormatCBOR
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatCBOR:
		return "cbor"
	case FormatYAML:
		return "yaml"
	default:
		return fmt.Sprintf("Format(%d)", f)
	}
}

// Ext returns the file extension used for f, with the leading dot.
func (f Format) Ext() string {
	if f == FormatYAML {
		return ".yaml"
	}
	return "." + f.String()
}

// ParseFormat maps a format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "cbor":
		return FormatCBOR, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return FormatJSON, fmt.Errorf("unknown descriptor format %q (expected json|cbor|yaml)", s)
	}
}

// FormatForPath guesses the format from a file extension; unknown extensions are JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cbor":
		return FormatCBOR
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// cborEncMode produces canonical CBOR, so equal descriptors encode to equal bytes.
var cborEncMode = func() cbor.EncMode {
	encMode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return encMode
}()

var cborDecMode = func() cbor.DecMode {
	decMode, err := cbor.DecOptions{
		DupMapKey: cbor.DupMapKeyEnforcedAPF,
	}.DecMode()
	if err != nil {
		panic(err)
	}
	return decMode
}()

// EncodeOptions tunes Encode.
type EncodeOptions struct {
	Format Format
	// Pretty indents JSON output. CBOR ignores it; YAML is always indented.
	Pretty bool
}

// Encode serializes d. The result depends only on the value of d.
func Encode(d *Descriptor, opts EncodeOptions) ([]byte, error) {
	if d == nil {
		return nil, fmt.Errorf("encode: nil descriptor")
	}
	switch opts.Format {
	case FormatJSON:
		data, err := json.Marshal(d)
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		if opts.Pretty {
			return pretty.PrettyOptions(data, &pretty.Options{Width: 100, Indent: "  "}), nil
		}
		return append(data, '\n'), nil
	case FormatCBOR:
		data, err := cborEncMode.Marshal(d)
		if err != nil {
			return nil, fmt.Errorf("encode cbor: %w", err)
		}
		return data, nil
	case FormatYAML:
		data, err := json.Marshal(d)
		if err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		out, err := yaml.JSONToYAML(data)
		if err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("encode: unsupported format %s", opts.Format)
	}
}
