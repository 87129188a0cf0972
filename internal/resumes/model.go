package resumes

import "resume-feedback/internal/files"

// Status messages shown to the user while a submission runs.
const (
	StatusUploading       = "Uploading your resume..."
	StatusConverting      = "Converting to image..."
	StatusUploadingImage  = "Uploading image..."
	StatusAnalyzing       = "Analyzing resume..."
	StatusGenerating      = "Generating feedback..."
	StatusComplete        = "AI Analysis Complete!"
	StatusUploadFailed    = "Error: Failed to upload file."
	StatusConvertFailed   = "Error: Failed to convert PDF to image."
	StatusImageFailed     = "Error: Failed to upload image."
	StatusSaveFailed      = "Error: Failed to save resume."
	StatusFeedbackFailed  = "Error: Failed to generate feedback."
	StatusFeedbackBadJSON = "Error: Failed to parse feedback."

	PromptFileRequired = "Please upload a resume file."
)

// KeyPrefix namespaces records in the key-value store.
const KeyPrefix = "resume:"

// Workflow steps, used as metric labels.
const (
	stepUpload      = "upload"
	stepConvert     = "convert"
	stepUploadImage = "upload_image"
	stepSave        = "save"
	stepFeedback    = "feedback"
	stepParse       = "parse"
)

// Record is the persisted submission. Feedback is "" until the AI response is parsed.
type Record struct {
	ID             string `json:"id"`
	ResumePath     string `json:"resumePath"`
	ImagePath      string `json:"imagePath"`
	CompanyName    string `json:"companyName"`
	JobTitle       string `json:"jobTitle"`
	JobDescription string `json:"jobDescription"`
	Feedback       any    `json:"feedback"`
}

// Key returns the store key for a record id.
func Key(id string) string {
	return KeyPrefix + id
}

// Input is one form submission. A nil File means nothing was selected.
type Input struct {
	CompanyName    string
	JobTitle       string
	JobDescription string
	File           *files.File
}

// State is what the user sees for a submission.
type State struct {
	Processing bool   `json:"processing"`
	Status     string `json:"status"`
	Prompt     string `json:"prompt,omitempty"`
	RecordID   string `json:"recordId,omitempty"`
}
