package resumes

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-feedback/internal/llm"
	"resume-feedback/internal/shared/server/respond"
)

func newRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h.RegisterRoutes(router.Group("/api/v1"))
	return router
}

func multipartBody(t *testing.T, fields map[string]string, fileName string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, _ = fw.Write(data)
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

var formFields = map[string]string{
	"company-name":    "Acme",
	"job-title":       "Backend Engineer",
	"job-description": "Build Go services.",
}

func TestAnalyzeEndpointReturnsFinalState(t *testing.T) {
	h := newHarness(llm.TextContent(`{"score":7}`))
	router := newRouter(NewHandler(h.wf, h.store))

	body, contentType := multipartBody(t, formFields, "resume.pdf", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes/analyze", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var state State
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &state))
	assert.Equal(t, State{Processing: true, Status: StatusComplete, RecordID: "rec-1"}, state)

	rec := storedRecord(t, h.store, "rec-1")
	assert.Equal(t, "Acme", rec.CompanyName)
	assert.Equal(t, map[string]any{"score": float64(7)}, rec.Feedback)
}

func TestAnalyzeEndpointStreamsStatuses(t *testing.T) {
	h := newHarness(llm.BlockContent(llm.Block{Type: "text", Text: `{"score":9}`}))
	router := newRouter(NewHandler(h.wf, h.store))

	body, contentType := multipartBody(t, formFields, "resume.pdf", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes/analyze", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "text/event-stream")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Header().Get("Content-Type"), "text/event-stream")

	out := resp.Body.String()
	last := -1
	for _, status := range []string{StatusUploading, StatusConverting, StatusUploadingImage, StatusAnalyzing, StatusGenerating, StatusComplete} {
		idx := strings.Index(out, "data:"+status)
		require.GreaterOrEqual(t, idx, 0, "missing status %q in %s", status, out)
		assert.Greater(t, idx, last, "status %q out of order", status)
		last = idx
	}
	assert.Contains(t, out, "event:status")
	stateIdx := strings.Index(out, "event:state")
	require.Greater(t, stateIdx, last)
	assert.Contains(t, out[stateIdx:], `"recordId":"rec-1"`)
}

func TestAnalyzeEndpointRequiresFile(t *testing.T) {
	h := newHarness(llm.TextContent(`{}`))
	router := newRouter(NewHandler(h.wf, h.store))

	body, contentType := multipartBody(t, formFields, "", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes/analyze", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	var errResp respond.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errResp))
	assert.Equal(t, ErrorCodeFileRequired, errResp.Error.Code)
	assert.Equal(t, PromptFileRequired, errResp.Error.Message)
	assert.Empty(t, h.calls.all())
}

func TestAnalyzeEndpointRequiresFields(t *testing.T) {
	h := newHarness(llm.TextContent(`{}`))
	router := newRouter(NewHandler(h.wf, h.store))

	body, contentType := multipartBody(t, map[string]string{"company-name": "Acme", "job-title": "  ", "job-description": "x"}, "resume.pdf", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes/analyze", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), ErrorCodeValidation)
	assert.Empty(t, h.calls.all())
}

func TestGetResume(t *testing.T) {
	h := newHarness(llm.TextContent(`{}`))
	router := newRouter(NewHandler(h.wf, h.store))
	raw, _ := json.Marshal(Record{ID: "abc", CompanyName: "Acme", Feedback: map[string]any{"score": 3}})
	require.NoError(t, h.store.MemoryStore.Set(context.Background(), Key("abc"), string(raw)))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/resumes/abc", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	var rec Record
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &rec))
	assert.Equal(t, "Acme", rec.CompanyName)

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/resumes/missing", nil))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestListResumes(t *testing.T) {
	h := newHarness(llm.TextContent(`{}`))
	router := newRouter(NewHandler(h.wf, h.store))
	ctx := context.Background()
	for _, id := range []string{"a", "b"} {
		raw, _ := json.Marshal(Record{ID: id, Feedback: ""})
		require.NoError(t, h.store.MemoryStore.Set(ctx, Key(id), string(raw)))
	}
	require.NoError(t, h.store.MemoryStore.Set(ctx, Key("broken"), "{"))
	require.NoError(t, h.store.MemoryStore.Set(ctx, "other:x", "{}"))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/resumes", nil))
	require.Equal(t, http.StatusOK, resp.Code)

	var out struct {
		Items []Record `json:"items"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	ids := []string{}
	for _, r := range out.Items {
		ids = append(ids, r.ID)
	}
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
}
