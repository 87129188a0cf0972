package resumes

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-feedback/internal/files"
	"resume-feedback/internal/kv"
	"resume-feedback/internal/shared/server/middleware"
	"resume-feedback/internal/shared/server/respond"
	"resume-feedback/internal/shared/telemetry"
)

// Handler wires HTTP handlers to the workflow and the record store.
type Handler struct {
	Workflow *Workflow
	KV       kv.Store
}

// NewHandler constructs a Handler.
func NewHandler(workflow *Workflow, store kv.Store) *Handler {
	return &Handler{Workflow: workflow, KV: store}
}

// RegisterRoutes attaches resume routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/resumes/analyze", h.analyze)
	rg.GET("/resumes", h.list)
	rg.GET("/resumes/:id", h.get)
}

type analyzeForm struct {
	CompanyName    string `form:"company-name" binding:"required"`
	JobTitle       string `form:"job-title" binding:"required"`
	JobDescription string `form:"job-description" binding:"required"`
}

type sseEvent struct {
	name string
	data any
}

func (h *Handler) analyze(c *gin.Context) {
	var form analyzeForm
	if err := c.ShouldBind(&form); err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "company-name, job-title and job-description are required", nil)
		return
	}
	in := Input{
		CompanyName:    strings.TrimSpace(form.CompanyName),
		JobTitle:       strings.TrimSpace(form.JobTitle),
		JobDescription: strings.TrimSpace(form.JobDescription),
	}
	if in.CompanyName == "" || in.JobTitle == "" || in.JobDescription == "" {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "company-name, job-title and job-description are required", nil)
		return
	}

	fh, err := c.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "invalid multipart form", nil)
		return
	default:
		f, err := files.FromMultipart(fh)
		if err != nil {
			if errors.Is(err, files.ErrTooLarge) {
				respond.Error(c, http.StatusRequestEntityTooLarge, ErrorCodeValidation, "file exceeds size limit", nil)
				return
			}
			respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "unable to read file", nil)
			return
		}
		in.File = &f
	}

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))

	if in.File == nil {
		state := h.Workflow.Analyze(ctx, in, nil)
		respond.Error(c, http.StatusBadRequest, ErrorCodeFileRequired, state.Prompt, nil)
		return
	}

	if !wantsEventStream(c) {
		state := h.Workflow.Analyze(ctx, in, nil)
		h.annotate(c, state)
		respond.JSON(c, http.StatusOK, state)
		return
	}

	// Buffered so the workflow never blocks on a slow or departed client.
	events := make(chan sseEvent, 16)
	tracker := &Tracker{}
	var last string
	tracker.OnChange = func(s State) {
		if s.Status != last {
			last = s.Status
			events <- sseEvent{name: "status", data: s.Status}
		}
	}
	go func() {
		defer close(events)
		state := h.Workflow.Analyze(ctx, in, tracker)
		events <- sseEvent{name: "state", data: state}
	}()

	respond.StartStream(c)
	for ev := range events {
		if state, ok := ev.data.(State); ok {
			h.annotate(c, state)
		}
		respond.Event(c, ev.name, ev.data)
	}
}

func (h *Handler) annotate(c *gin.Context, state State) {
	c.Set("workflowStatus", state.Status)
	if state.RecordID != "" {
		c.Set("recordId", state.RecordID)
	}
}

func wantsEventStream(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/event-stream")
}

func (h *Handler) get(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "resume id is required", nil)
		return
	}
	c.Set("recordId", id)

	record, err := h.load(c, id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, ErrorCodeNotFound, "resume not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "failed to fetch resume", nil)
		}
		return
	}
	respond.OK(c, record)
}

func (h *Handler) load(c *gin.Context, id string) (Record, error) {
	raw, err := h.KV.Get(c.Request.Context(), Key(id))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	var record Record
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return Record{}, err
	}
	return record, nil
}

func (h *Handler) list(c *gin.Context) {
	entries, err := h.KV.List(c.Request.Context(), KeyPrefix)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "failed to list resumes", nil)
		return
	}

	items := make([]Record, 0, len(entries))
	for _, e := range entries {
		var record Record
		if err := json.Unmarshal([]byte(e.Value), &record); err != nil {
			telemetry.Warn("resume.list.decode_failed", map[string]any{
				"key": e.Key,
				"err": err.Error(),
			})
			continue
		}
		items = append(items, record)
	}
	respond.OK(c, gin.H{"items": items})
}
