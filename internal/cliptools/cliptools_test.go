package cliptools

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/clipvault/internal/clipboard"
	"github.com/HendryAvila/clipvault/internal/filecache"
	"github.com/HendryAvila/clipvault/internal/security"
)

// ─── Test helpers ───────────────────────────────────────────────────────────

func newTestStore(t *testing.T) *clipboard.Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := clipboard.New(clipboard.Config{
		DataDir:    t.TempDir(),
		MaxRecords: 50,
		PrivateTTL: time.Hour,
	}, logger)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestLimiter() *security.RateLimiter {
	return security.NewRateLimiter(security.DefaultRateLimitConfig())
}

func newTestCache(t *testing.T, maxFileSize int64) *filecache.Manager {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m, err := filecache.New(t.TempDir(), maxFileSize, logger)
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	return m
}

// fakeResolver passes validated paths through unchanged and allows a
// single root directory.
type fakeResolver struct {
	root    string
	dataDir string
}

func (r *fakeResolver) Resolve(input string) (string, error) { return input, nil }
func (r *fakeResolver) DataDir() string                      { return r.dataDir }
func (r *fakeResolver) Roots() []string                      { return []string{r.root} }

func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// resultText extracts the text content from a tool result.
func resultText(r *mcp.CallToolResult) string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func mustCopy(t *testing.T, store *clipboard.Store, content string, private bool) *clipboard.Record {
	t.Helper()
	rec, err := store.InsertText(content, clipboard.TypeText, private)
	if err != nil {
		t.Fatalf("InsertText: %v", err)
	}
	return rec
}

// ─── CopyTool ───────────────────────────────────────────────────────────────

func TestCopyTool_Definition(t *testing.T) {
	tool := NewCopyTool(newTestStore(t), newTestLimiter())
	def := tool.Definition()

	if def.Name != "clip_copy" {
		t.Errorf("name = %q, want clip_copy", def.Name)
	}
	for _, prop := range []string{"content", "content_type", "private"} {
		if _, ok := def.InputSchema.Properties[prop]; !ok {
			t.Errorf("schema missing property %q", prop)
		}
	}
	if len(def.InputSchema.Required) != 1 || def.InputSchema.Required[0] != "content" {
		t.Errorf("required = %v, want [content]", def.InputSchema.Required)
	}
}

func TestCopyTool_Handle(t *testing.T) {
	store := newTestStore(t)
	tool := NewCopyTool(store, newTestLimiter())

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"content": "remember this",
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(result))
	}
	if !strings.Contains(resultText(result), "ID: 1") {
		t.Errorf("result should include the new id, got: %s", resultText(result))
	}

	rec, err := store.Get(1)
	if err != nil {
		t.Fatalf("record not stored: %v", err)
	}
	if rec.Content != "remember this" {
		t.Errorf("content = %q", rec.Content)
	}
}

func TestCopyTool_EmptyContent(t *testing.T) {
	tool := NewCopyTool(newTestStore(t), newTestLimiter())

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"content": "   ",
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error for empty content")
	}
}

func TestCopyTool_Private(t *testing.T) {
	store := newTestStore(t)
	tool := NewCopyTool(store, newTestLimiter())

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"content": "secret value",
		"private": true,
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(result))
	}

	rec, err := store.Get(1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !rec.IsPrivate {
		t.Error("record should be private")
	}
}

func TestCopyTool_RateLimited(t *testing.T) {
	limiter := security.NewRateLimiter(security.RateLimitConfig{
		Window: time.Minute, GeneralLimit: 1, FileLimit: 1,
	})
	tool := NewCopyTool(newTestStore(t), limiter)
	req := makeReq(map[string]interface{}{"content": "x y"})

	if r, _ := tool.Handle(context.Background(), req); r.IsError {
		t.Fatalf("first call should pass: %s", resultText(r))
	}
	r, err := tool.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !r.IsError || !strings.Contains(resultText(r), "rate limited") {
		t.Errorf("second call should be rate limited, got: %s", resultText(r))
	}
}

// ─── CopyFileTool ───────────────────────────────────────────────────────────

func newCopyFileFixture(t *testing.T) (*CopyFileTool, *clipboard.Store, string) {
	t.Helper()
	store := newTestStore(t)
	cache := newTestCache(t, 1024)
	root := t.TempDir()
	tool := NewCopyFileTool(store, cache, &fakeResolver{root: root, dataDir: t.TempDir()}, newTestLimiter())
	return tool, store, root
}

func TestCopyFileTool_Handle(t *testing.T) {
	tool, store, root := newCopyFileFixture(t)

	src := filepath.Join(root, "notes.md")
	if err := os.WriteFile(src, []byte("# notes"), 0600); err != nil {
		t.Fatalf("write source: %v", err)
	}

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"path": src,
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(result))
	}

	rec, err := store.Get(1)
	if err != nil {
		t.Fatalf("record not stored: %v", err)
	}
	if !rec.FileBacked() {
		t.Fatal("record should be file-backed")
	}
	if rec.ContentType != clipboard.TypeDocumentFile {
		t.Errorf("content_type = %q, want document_file", rec.ContentType)
	}
	if *rec.MimeType != "text/markdown" {
		t.Errorf("mime = %q, want text/markdown", *rec.MimeType)
	}
	if _, err := os.Stat(*rec.CachedFilePath); err != nil {
		t.Errorf("cached copy missing: %v", err)
	}
}

func TestCopyFileTool_RejectsTraversal(t *testing.T) {
	tool, _, root := newCopyFileFixture(t)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"path": root + "/../../../etc/passwd",
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !result.IsError || !strings.Contains(resultText(result), "invalid path") {
		t.Errorf("traversal should be rejected, got: %s", resultText(result))
	}
}

func TestCopyFileTool_RejectsOutsideRoot(t *testing.T) {
	tool, _, _ := newCopyFileFixture(t)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"path": "/etc/hostname",
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !result.IsError {
		t.Error("path outside the allowed roots should be rejected")
	}
}

func TestCopyFileTool_MissingFile(t *testing.T) {
	tool, _, root := newCopyFileFixture(t)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"path": filepath.Join(root, "absent.txt"),
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !result.IsError || !strings.Contains(resultText(result), "file not found") {
		t.Errorf("missing file should report not found, got: %s", resultText(result))
	}
}

func TestCopyFileTool_RejectsDirectory(t *testing.T) {
	tool, _, root := newCopyFileFixture(t)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"path": root,
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !result.IsError || !strings.Contains(resultText(result), "directory") {
		t.Errorf("directory should be rejected, got: %s", resultText(result))
	}
}

func TestCopyFileTool_RejectsOversized(t *testing.T) {
	tool, _, root := newCopyFileFixture(t) // 1 KB ceiling

	src := filepath.Join(root, "big.bin")
	if err := os.WriteFile(src, make([]byte, 4096), 0600); err != nil {
		t.Fatalf("write source: %v", err)
	}

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"path": src,
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !result.IsError || !strings.Contains(resultText(result), "too large") {
		t.Errorf("oversized file should be rejected, got: %s", resultText(result))
	}
}

func TestCopyFileTool_FileRateLimit(t *testing.T) {
	store := newTestStore(t)
	cache := newTestCache(t, 1024)
	root := t.TempDir()
	limiter := security.NewRateLimiter(security.RateLimitConfig{
		Window: time.Minute, GeneralLimit: 100, FileLimit: 1,
	})
	tool := NewCopyFileTool(store, cache, &fakeResolver{root: root, dataDir: t.TempDir()}, limiter)

	src := filepath.Join(root, "f.txt")
	if err := os.WriteFile(src, []byte("x"), 0600); err != nil {
		t.Fatalf("write source: %v", err)
	}
	req := makeReq(map[string]interface{}{"path": src})

	if r, _ := tool.Handle(context.Background(), req); r.IsError {
		t.Fatalf("first call should pass: %s", resultText(r))
	}
	r, err := tool.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !r.IsError || !strings.Contains(resultText(r), "file operations") {
		t.Errorf("second file call should hit the file ceiling, got: %s", resultText(r))
	}
}

// ─── PasteTool ──────────────────────────────────────────────────────────────

func TestPasteTool_ByID(t *testing.T) {
	store := newTestStore(t)
	mustCopy(t, store, "first", false)
	mustCopy(t, store, "second", false)
	tool := NewPasteTool(store, newTestLimiter())

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"id": float64(1),
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(result))
	}
	if text := resultText(result); !strings.Contains(text, "first") {
		t.Errorf("result should contain the record content, got: %s", text)
	}
}

func TestPasteTool_LatestByDefault(t *testing.T) {
	store := newTestStore(t)
	mustCopy(t, store, "older", false)
	mustCopy(t, store, "newest", false)
	mustCopy(t, store, "a private one", true)
	tool := NewPasteTool(store, newTestLimiter())

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(result))
	}
	text := resultText(result)
	if !strings.Contains(text, "newest") {
		t.Errorf("default paste should return the latest non-private item, got: %s", text)
	}
}

func TestPasteTool_EmptyStore(t *testing.T) {
	tool := NewPasteTool(newTestStore(t), newTestLimiter())

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !result.IsError {
		t.Error("paste from an empty clipboard should fail")
	}
}

// ─── ListTool / SearchTool ──────────────────────────────────────────────────

func TestListTool_Empty(t *testing.T) {
	tool := NewListTool(newTestStore(t), newTestLimiter())

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if text := resultText(result); text != "Clipboard is empty." {
		t.Errorf("got %q", text)
	}
}

func TestListTool_ShowsFlags(t *testing.T) {
	store := newTestStore(t)
	rec := mustCopy(t, store, "hold on to this", false)
	if _, err := store.TogglePin(rec.ID); err != nil {
		t.Fatalf("TogglePin: %v", err)
	}
	tool := NewListTool(store, newTestLimiter())

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if text := resultText(result); !strings.Contains(text, "[pinned]") {
		t.Errorf("listing should flag pinned items, got: %s", text)
	}
}

func TestSearchTool_FindsMatch(t *testing.T) {
	store := newTestStore(t)
	mustCopy(t, store, "kubernetes deployment manifest", false)
	mustCopy(t, store, "grocery list", false)
	tool := NewSearchTool(store, newTestLimiter())

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"query": "deployment manifest",
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	text := resultText(result)
	if !strings.Contains(text, "kubernetes") {
		t.Errorf("search should find the matching item, got: %s", text)
	}
	if strings.Contains(text, "grocery") {
		t.Errorf("search should not return non-matching items, got: %s", text)
	}
}

func TestSearchTool_NoMatches(t *testing.T) {
	store := newTestStore(t)
	mustCopy(t, store, "something here", false)
	tool := NewSearchTool(store, newTestLimiter())

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"query": "absent phrase",
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if text := resultText(result); !strings.Contains(text, "No matches") {
		t.Errorf("got %q", text)
	}
}

// ─── PinTool / DeleteTool / ClearTool ───────────────────────────────────────

func TestPinTool_Toggle(t *testing.T) {
	store := newTestStore(t)
	rec := mustCopy(t, store, "pin target", false)
	tool := NewPinTool(store, newTestLimiter())
	req := makeReq(map[string]interface{}{"id": float64(rec.ID)})

	result, err := tool.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if text := resultText(result); !strings.Contains(text, "now pinned") {
		t.Errorf("got %q", text)
	}

	result, err = tool.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if text := resultText(result); !strings.Contains(text, "now unpinned") {
		t.Errorf("got %q", text)
	}
}

func TestPinTool_MissingID(t *testing.T) {
	tool := NewPinTool(newTestStore(t), newTestLimiter())

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !result.IsError || !strings.Contains(resultText(result), "id") {
		t.Errorf("missing id should be rejected, got: %s", resultText(result))
	}
}

func TestPinTool_NotFound(t *testing.T) {
	tool := NewPinTool(newTestStore(t), newTestLimiter())

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"id": float64(99),
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !result.IsError || !strings.Contains(resultText(result), "not found") {
		t.Errorf("got %q", resultText(result))
	}
}

func TestDeleteTool_Handle(t *testing.T) {
	store := newTestStore(t)
	rec := mustCopy(t, store, "doomed", false)
	tool := NewDeleteTool(store, newTestLimiter())

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"id": float64(rec.ID),
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(result))
	}
	if _, err := store.Get(rec.ID); err == nil {
		t.Error("record should be gone")
	}
}

func TestClearTool_KeepsPinnedByDefault(t *testing.T) {
	store := newTestStore(t)
	mustCopy(t, store, "goes away", false)
	pinned := mustCopy(t, store, "stays", false)
	if _, err := store.TogglePin(pinned.ID); err != nil {
		t.Fatalf("TogglePin: %v", err)
	}
	tool := NewClearTool(store, newTestLimiter())

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	text := resultText(result)
	if !strings.Contains(text, "Cleared 1 items") || !strings.Contains(text, "pinned items kept") {
		t.Errorf("got %q", text)
	}
	if _, err := store.Get(pinned.ID); err != nil {
		t.Errorf("pinned record should survive: %v", err)
	}
}

func TestClearTool_IncludePinned(t *testing.T) {
	store := newTestStore(t)
	mustCopy(t, store, "one", false)
	mustCopy(t, store, "two", false)
	tool := NewClearTool(store, newTestLimiter())

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"include_pinned": true,
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if text := resultText(result); !strings.Contains(text, "ID sequence reset") {
		t.Errorf("got %q", text)
	}
}

// ─── StatsTool ──────────────────────────────────────────────────────────────

func TestStatsTool_Handle(t *testing.T) {
	store := newTestStore(t)
	mustCopy(t, store, "counted", false)
	tool := NewStatsTool(store, newTestCache(t, 0), newTestLimiter())

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(result))
	}
	text := resultText(result)
	if !strings.Contains(text, "**Items**: 1") {
		t.Errorf("stats should report one item, got: %s", text)
	}
}

// ─── LookAtTool ─────────────────────────────────────────────────────────────

func insertFileRecord(t *testing.T, store *clipboard.Store, name string, contentType clipboard.ContentType, mime string, data []byte) *clipboard.Record {
	t.Helper()
	cached := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(cached, data, 0600); err != nil {
		t.Fatalf("write cached file: %v", err)
	}
	rec, err := store.InsertFile(clipboard.InsertFileParams{
		CachedPath:   cached,
		OriginalPath: "/home/user/" + name,
		ContentType:  contentType,
		MimeType:     mime,
		FileSize:     int64(len(data)),
	})
	if err != nil {
		t.Fatalf("InsertFile: %v", err)
	}
	return rec
}

func TestLookAtTool_TextRecordRejected(t *testing.T) {
	store := newTestStore(t)
	rec := mustCopy(t, store, "just text", false)
	tool := NewLookAtTool(store, newTestLimiter())

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"id": float64(rec.ID),
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !result.IsError || !strings.Contains(resultText(result), "clip_paste") {
		t.Errorf("text records should point the caller to clip_paste, got: %s", resultText(result))
	}
}

func TestLookAtTool_ImageInline(t *testing.T) {
	store := newTestStore(t)
	rec := insertFileRecord(t, store, "pixel.png", clipboard.TypeImageFile, "image/png", []byte{0x89, 0x50, 0x4e, 0x47})
	tool := NewLookAtTool(store, newTestLimiter())

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"id": float64(rec.ID),
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(result))
	}

	foundImage := false
	for _, c := range result.Content {
		if ic, ok := c.(mcp.ImageContent); ok {
			foundImage = true
			if ic.MIMEType != "image/png" {
				t.Errorf("mime = %q, want image/png", ic.MIMEType)
			}
			if ic.Data == "" {
				t.Error("image data should not be empty")
			}
		}
	}
	if !foundImage {
		t.Error("image record should return inline image content")
	}
}

func TestLookAtTool_DocumentDetail(t *testing.T) {
	store := newTestStore(t)
	rec := insertFileRecord(t, store, "paper.pdf", clipboard.TypeDocumentFile, "application/pdf", []byte("%PDF"))
	tool := NewLookAtTool(store, newTestLimiter())

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"id": float64(rec.ID),
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(result))
	}
	text := resultText(result)
	if !strings.Contains(text, "application/pdf") || !strings.Contains(text, "Cached copy") {
		t.Errorf("detail should include file metadata, got: %s", text)
	}
}
