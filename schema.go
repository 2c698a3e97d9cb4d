package tranquility

// SchemaType names a JSON value type understood by the generative service.
type SchemaType string

const (
	TypeObject  SchemaType = "OBJECT"
	TypeString  SchemaType = "STRING"
	TypeInteger SchemaType = "INTEGER"
)

// Schema constrains the shape of a structured reply.
type Schema struct {
	Type        SchemaType
	Description string
	Properties  map[string]*Schema
	Required    []string
}

// MoodReplySchema describes a reply carrying text plus a mood label and a
// 1-10 intensity rating.
func MoodReplySchema() *Schema {
	return &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"text": {Type: TypeString, Description: "The reply shown to the user."},
			"mood": {
				Type: TypeObject,
				Properties: map[string]*Schema{
					"mood":      {Type: TypeString, Description: "One-word label for the user's emotional state."},
					"rageMeter": {Type: TypeInteger, Description: "Emotional intensity from 1 (calm) to 10 (enraged)."},
				},
				Required: []string{"mood", "rageMeter"},
			},
		},
		Required: []string{"text", "mood"},
	}
}
