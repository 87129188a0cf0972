package resumes

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"resume-feedback/internal/convert"
	"resume-feedback/internal/files"
	"resume-feedback/internal/kv"
	"resume-feedback/internal/llm"
	"resume-feedback/internal/shared/metrics"
	"resume-feedback/internal/shared/telemetry"
)

// Uploader stores files and reports where they landed.
type Uploader interface {
	Upload(ctx context.Context, files ...files.File) (*files.Uploaded, error)
}

// Converter turns a document into an image.
type Converter interface {
	Convert(ctx context.Context, f files.File) convert.Result
}

// Workflow runs one submission: upload, convert, upload image, save, request feedback, save again.
// Each step runs only if the previous one produced a result. Failures end the run with a status.
type Workflow struct {
	Files     Uploader
	Converter Converter
	KV        kv.Store
	AI        llm.Client

	NewID        func() string
	Instructions func(jobTitle, jobDescription string) string
	now          func() time.Time
}

// NewWorkflow wires a Workflow with uuid ids and the default review prompt.
func NewWorkflow(uploader Uploader, converter Converter, store kv.Store, ai llm.Client) *Workflow {
	return &Workflow{
		Files:        uploader,
		Converter:    converter,
		KV:           store,
		AI:           ai,
		NewID:        uuid.NewString,
		Instructions: llm.PrepareInstructions,
		now:          time.Now,
	}
}

// run mirrors observer updates into a State so Analyze can return the final snapshot.
type run struct {
	obs   Observer
	state State
	ctx   context.Context
	start time.Time
}

func (r *run) processing(v bool) {
	r.state.Processing = v
	r.obs.SetProcessing(v)
}

func (r *run) status(s string) {
	r.state.Status = s
	r.obs.SetStatus(s)
}

func (r *run) fail(step, status string, fields map[string]any) State {
	r.status(status)
	metrics.IncWorkflowFailed(step)
	if fields == nil {
		fields = map[string]any{}
	}
	fields["step"] = step
	fields["status"] = status
	fields["record_id"] = r.state.RecordID
	fields["request_id"] = requestIDFromContext(r.ctx)
	telemetry.Warn("resume.workflow.failed", fields)
	return r.state
}

// Analyze runs the workflow for in, reporting progress to obs, and returns the final state.
// The processing flag is raised at the first step and left raised.
func (w *Workflow) Analyze(ctx context.Context, in Input, obs Observer) State {
	if obs == nil {
		obs = nopObserver{}
	}
	r := &run{obs: obs, ctx: ctx}

	if in.File == nil {
		r.state.Prompt = PromptFileRequired
		obs.Prompt(PromptFileRequired)
		return r.state
	}

	now := w.now
	if now == nil {
		now = time.Now
	}
	r.start = now()
	metrics.IncWorkflowStarted()
	telemetry.Info("resume.workflow.started", map[string]any{
		"request_id": requestIDFromContext(ctx),
		"file_name":  in.File.Name,
		"size_bytes": len(in.File.Data),
	})

	r.processing(true)
	r.status(StatusUploading)
	uploaded, err := w.Files.Upload(ctx, *in.File)
	if err != nil || uploaded == nil {
		return r.fail(stepUpload, StatusUploadFailed, errFields(err))
	}

	r.status(StatusConverting)
	converted := w.Converter.Convert(ctx, *in.File)
	if converted.File == nil {
		return r.fail(stepConvert, StatusConvertFailed, map[string]any{"err": converted.Error})
	}

	r.status(StatusUploadingImage)
	image, err := w.Files.Upload(ctx, *converted.File)
	if err != nil || image == nil {
		return r.fail(stepUploadImage, StatusImageFailed, errFields(err))
	}

	r.status(StatusAnalyzing)
	record := Record{
		ID:             w.NewID(),
		ResumePath:     uploaded.Path,
		ImagePath:      image.Path,
		CompanyName:    in.CompanyName,
		JobTitle:       in.JobTitle,
		JobDescription: in.JobDescription,
		Feedback:       "",
	}
	r.state.RecordID = record.ID
	if err := w.save(ctx, record); err != nil {
		return r.fail(stepSave, StatusSaveFailed, errFields(err))
	}

	r.status(StatusGenerating)
	resp, err := w.AI.Feedback(ctx, uploaded.Path, w.Instructions(in.JobTitle, in.JobDescription))
	if err != nil || resp == nil {
		return r.fail(stepFeedback, StatusFeedbackFailed, errFields(err))
	}

	feedback, err := parseFeedback(resp)
	if err != nil {
		return r.fail(stepParse, StatusFeedbackBadJSON, errFields(err))
	}
	if err := llm.ValidateFeedback(feedback); err != nil {
		telemetry.Warn("resume.feedback.schema_mismatch", map[string]any{
			"record_id": record.ID,
			"err":       err.Error(),
		})
	}
	record.Feedback = feedback
	if err := w.save(ctx, record); err != nil {
		return r.fail(stepSave, StatusSaveFailed, errFields(err))
	}

	r.status(StatusComplete)
	elapsed := now().Sub(r.start)
	metrics.IncWorkflowCompleted()
	metrics.ObserveWorkflowDurationMs(float64(elapsed.Milliseconds()))
	telemetry.Info("resume.workflow.completed", map[string]any{
		"request_id":  requestIDFromContext(ctx),
		"record_id":   record.ID,
		"resume_path": record.ResumePath,
		"image_path":  record.ImagePath,
		"company":     record.CompanyName,
		"job_title":   record.JobTitle,
		"feedback":    record.Feedback,
		"duration_ms": elapsed.Milliseconds(),
	})
	return r.state
}

func (w *Workflow) save(ctx context.Context, record Record) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	return w.KV.Set(ctx, Key(record.ID), string(raw))
}

func parseFeedback(resp *llm.Response) (any, error) {
	text, err := resp.Message.Content.Text()
	if err != nil {
		return nil, err
	}
	var feedback any
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &feedback); err != nil {
		return nil, fmt.Errorf("parse feedback json: %w", err)
	}
	return feedback, nil
}

// stripCodeFence removes a surrounding ```json fence some models add despite instructions.
func stripCodeFence(text string) string {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```")
	if nl := strings.IndexByte(t, '\n'); nl >= 0 {
		t = t[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(t), "```"))
}

func errFields(err error) map[string]any {
	if err == nil {
		return map[string]any{"err": "no result"}
	}
	return map[string]any{"err": err.Error()}
}
