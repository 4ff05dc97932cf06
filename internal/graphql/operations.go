package graphql

import "fmt"

// Operation is a named GraphQL document.
type Operation struct {
	Name  string
	Query string
}

// Catalog operations used by the live executor.
var (
	SearchMetacards = Operation{
		Name: "SearchMetacards",
		Query: `query SearchMetacards($filterTree: Json!, $settings: QuerySettingsInput) {
  metacards(filterTree: $filterTree, settings: $settings) {
    results {
      metacard
      actions { id title displayName description url }
    }
    status { count elapsed hits id successful }
  }
}`,
	}

	MetacardTypes = Operation{
		Name: "MetacardTypes",
		Query: `query MetacardTypes {
  metacardTypes { id type multivalued isInjected enums }
}`,
	}

	Probe = Operation{
		Name:  "Probe",
		Query: `query Probe { __typename }`,
	}
)

// Operations lists every operation the service may send.
func Operations() []Operation {
	return []Operation{SearchMetacards, MetacardTypes, Probe}
}

// ValidateOperations checks every known operation against the schema.
func ValidateOperations() error {
	for _, op := range Operations() {
		if _, err := Validate(op.Query); err != nil {
			return fmt.Errorf("operation %s: %w", op.Name, err)
		}
	}
	return nil
}
