package llm

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/feedback.json
var feedbackSchema string

var feedbackSchemaLoader = gojsonschema.NewStringLoader(feedbackSchema)

// ValidateFeedback checks a decoded feedback value against the embedded schema.
func ValidateFeedback(feedback any) error {
	result, err := gojsonschema.Validate(feedbackSchemaLoader, gojsonschema.NewGoLoader(feedback))
	if err != nil {
		return fmt.Errorf("validate feedback: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("feedback does not match schema: %s", strings.Join(msgs, "; "))
}
