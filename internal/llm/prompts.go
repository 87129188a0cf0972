package llm

import (
	"bytes"
	_ "embed"
	"strings"
	"text/template"
)

//go:embed prompts/feedback.txt
var feedbackPrompt string

var feedbackTemplate = template.Must(template.New("feedback").Parse(feedbackPrompt))

// PrepareInstructions renders the review instructions for a target role.
func PrepareInstructions(jobTitle, jobDescription string) string {
	var buf bytes.Buffer
	data := struct {
		JobTitle       string
		JobDescription string
		ResponseFormat string
	}{
		JobTitle:       strings.TrimSpace(jobTitle),
		JobDescription: strings.TrimSpace(jobDescription),
		ResponseFormat: strings.TrimSpace(feedbackSchema),
	}
	// The template is static and the data is plain strings.
	_ = feedbackTemplate.Execute(&buf, data)
	return buf.String()
}
