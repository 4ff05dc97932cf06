package graphql

import "encoding/json"

// QueryResponse mirrors the QueryResponse type.
type QueryResponse struct {
	Results []QueryResponseResult `json:"results"`
	Status  QueryResponseStatus   `json:"status"`
}

// QueryResponseResult is one hit. Metacard holds every attribute under its
// raw name.
type QueryResponseResult struct {
	Actions  []MetacardAction `json:"actions,omitempty"`
	Metacard map[string]any   `json:"metacard"`
}

// QueryResponseStatus mirrors the QueryResponseStatus type.
type QueryResponseStatus struct {
	Count      int    `json:"count"`
	Elapsed    int    `json:"elapsed"`
	Hits       int    `json:"hits"`
	ID         string `json:"id"`
	Successful bool   `json:"successful"`
}

// MetacardAction mirrors the MetacardAction type.
type MetacardAction struct {
	Description string `json:"description,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	ID          string `json:"id,omitempty"`
	Title       string `json:"title,omitempty"`
	URL         string `json:"url,omitempty"`
}

// MetacardType is a registered attribute definition.
type MetacardType struct {
	ID          string   `json:"id"`
	IsInjected  bool     `json:"isInjected"`
	Multivalued bool     `json:"multivalued"`
	Type        string   `json:"type"`
	Enums       []string `json:"enums,omitempty"`
}

// Error is a GraphQL error entry.
type Error struct {
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}

// response is the standard GraphQL-over-HTTP reply envelope.
type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []Error         `json:"errors,omitempty"`
}

// request is the standard GraphQL-over-HTTP request body.
type request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}
