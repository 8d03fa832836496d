package metadata

import (
	"bytes"
	"encoding/json"

	"github.com/goccy/go-yaml"
	"github.com/pkg/errors"
)

// Load parses an encoded descriptor and checks that its type registry is
// well formed. Consistency beyond the registry is left to Verify.
func Load(data []byte, format Format) (*Descriptor, error) {
	var d Descriptor
	switch format {
	case FormatCBOR:
		if err := cborDecMode.Unmarshal(data, &d); err != nil {
			return nil, errors.Wrap(err, "decode cbor descriptor")
		}
	case FormatYAML:
		js, err := yaml.YAMLToJSON(data)
		if err != nil {
			return nil, errors.Wrap(err, "decode yaml descriptor")
		}
		if err := decodeJSON(js, &d); err != nil {
			return nil, err
		}
	default:
		if err := decodeJSON(data, &d); err != nil {
			return nil, err
		}
	}
	if _, err := d.Registry(); err != nil {
		return nil, errors.Wrap(err, "descriptor types")
	}
	return &d, nil
}

func decodeJSON(data []byte, d *Descriptor) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(d); err != nil {
		return errors.Wrap(err, "decode json descriptor")
	}
	if dec.More() {
		return errors.New("decode json descriptor: trailing data")
	}
	return nil
}
