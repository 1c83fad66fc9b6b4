package entities

// SchemaType mirrors the type names accepted by structured-output model APIs.
type SchemaType string

const (
	SchemaObject  SchemaType = "OBJECT"
	SchemaArray   SchemaType = "ARRAY"
	SchemaString  SchemaType = "STRING"
	SchemaNumber  SchemaType = "NUMBER"
	SchemaInteger SchemaType = "INTEGER"
	SchemaBoolean SchemaType = "BOOLEAN"
)

// ResponseSchema constrains the shape of a model answer.
type ResponseSchema struct {
	Type        SchemaType                 `json:"type"`
	Description string                     `json:"description,omitempty"`
	Properties  map[string]*ResponseSchema `json:"properties,omitempty"`
	Items       *ResponseSchema            `json:"items,omitempty"`
	Required    []string                   `json:"required,omitempty"`
	Enum        []string                   `json:"enum,omitempty"`
}

// ModelRequest is a provider-neutral structured generation request.
type ModelRequest struct {
	Instruction     string          `json:"instruction"`
	Schema          *ResponseSchema `json:"schema"`
	Temperature     float64         `json:"temperature"`
	MaxOutputTokens int             `json:"max_output_tokens"`
}
