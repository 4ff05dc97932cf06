package store

import (
	"encoding/json"
	"fmt"

	"github.com/golang/snappy"
	"github.com/intrigue/searchforms/internal/forms"
)

// Stored values start with one byte naming the encoding of the rest.
const (
	encodingJSON   byte = 0
	encodingSnappy byte = 1
)

// codec turns forms into stored values and back. Decoding follows the
// header byte, so compression can be toggled without rewriting old keys.
type codec struct {
	compress bool
}

func (c codec) encode(f forms.Form) ([]byte, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal form: %w", err)
	}
	if !c.compress {
		return append([]byte{encodingJSON}, data...), nil
	}
	return append([]byte{encodingSnappy}, snappy.Encode(nil, data)...), nil
}

func (c codec) decode(value []byte) (forms.Form, error) {
	var f forms.Form
	if len(value) == 0 {
		return f, fmt.Errorf("empty stored value")
	}

	data := value[1:]
	switch value[0] {
	case encodingJSON:
	case encodingSnappy:
		var err error
		data, err = snappy.Decode(nil, data)
		if err != nil {
			return f, fmt.Errorf("snappy decompress failed: %w", err)
		}
	default:
		return f, fmt.Errorf("unknown stored encoding: %d", value[0])
	}

	if err := json.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("failed to unmarshal form: %w", err)
	}
	return f, nil
}
