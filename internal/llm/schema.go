package llm

import (
	"encoding/json"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/rachael-ai/orchestrator/internal/domain"
)

// planJSONSchema is rendered once from domain.Plan's struct tags and
// appended to the planning system prompt, so the enumerated shape the
// Planner validates against and the shape shown to the model can never
// drift out of sync with each other.
var planJSONSchema = sync.OnceValue(func() string {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(&domain.Plan{})
	schema.Version = ""

	encoded, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return ""
	}
	return string(encoded)
})
