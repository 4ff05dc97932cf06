package forms

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	invopop "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const schemaResource = "form.json"

var printer = message.NewPrinter(language.English)

// JSONSchema reflects the JSON Schema of Form. Every field also accepts
// null, which decodes to its default. filterTree is left unconstrained;
// its shape is owned by the filter builder.
func JSONSchema() *invopop.Schema {
	r := &invopop.Reflector{
		DoNotReference:             true,
		AllowAdditionalProperties:  true,
		RequiredFromJSONSchemaTags: true,
	}
	s := r.Reflect(&Form{})
	s.Title = "Search form"
	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		pair.Value = nullable(pair.Value)
	}
	s.Properties.Set("filterTree", &invopop.Schema{
		Description: "Opaque filter tree, forwarded without interpretation",
	})
	return s
}

func nullable(s *invopop.Schema) *invopop.Schema {
	return &invopop.Schema{
		AnyOf: []*invopop.Schema{s, {Type: "null"}},
	}
}

// Validator checks request bodies against the reflected form schema.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles the form schema.
func NewValidator() (*Validator, error) {
	raw, err := json.Marshal(JSONSchema())
	if err != nil {
		return nil, fmt.Errorf("marshaling form schema: %w", err)
	}

	// The compiler wants a plain decoded value, not bytes.
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unmarshaling form schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaResource, doc); err != nil {
		return nil, fmt.Errorf("adding form schema resource: %w", err)
	}
	compiled, err := c.Compile(schemaResource)
	if err != nil {
		return nil, fmt.Errorf("compiling form schema: %w", err)
	}
	return &Validator{schema: compiled}, nil
}

// Validate decodes body and reports every schema violation. A nil result
// means the body is a well-formed form.
func (v *Validator) Validate(body []byte) []string {
	var value any
	if err := json.Unmarshal(body, &value); err != nil {
		return []string{fmt.Sprintf("invalid JSON: %s", err.Error())}
	}

	err := v.schema.Validate(value)
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return []string{err.Error()}
	}

	var out []string
	collect(verr, &out)
	if len(out) == 0 {
		out = append(out, verr.Error())
	}
	sort.Strings(out)
	return out
}

// collect walks to the leaf causes, which carry the useful messages.
func collect(err *jsonschema.ValidationError, out *[]string) {
	if len(err.Causes) == 0 {
		path := "/" + strings.Join(err.InstanceLocation, "/")
		msg := err.Error()
		if err.ErrorKind != nil {
			msg = err.ErrorKind.LocalizedString(printer)
		}
		*out = append(*out, fmt.Sprintf("%s: %s", path, msg))
		return
	}
	for _, cause := range err.Causes {
		collect(cause, out)
	}
}
