package attachments

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	localstore "jobtrack-backend/internal/shared/storage/object/local"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(localstore.New(t.TempDir()), NewMemoryRepo())
}

func buildDocx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	doc, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create document.xml: %v", err)
	}
	var body strings.Builder
	body.WriteString(`<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	body.WriteString(`</w:body></w:document>`)
	if _, err := doc.Write([]byte(body.String())); err != nil {
		t.Fatalf("write document.xml: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestSaveRejectsUnsupportedExtension(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Save(context.Background(), "CH-4K2Q9Z", "user-1", "brief.exe", 10, strings.NewReader("xx"))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("err = %v, want ErrUnsupportedType", err)
	}
}

func TestSaveRejectsOversizedDeclaredUpload(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Save(context.Background(), "CH-4K2Q9Z", "user-1", "brief.pdf", MaxUploadBytes+1, strings.NewReader("xx"))
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("err = %v, want ErrTooLarge", err)
	}
}

func TestSaveDocxExtractsText(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	payload := buildDocx(t, "First paragraph of the brief.", "Second paragraph.")

	attachment, err := svc.Save(ctx, "CH-4K2Q9Z", "user-1", "brief.docx", int64(len(payload)), bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if attachment.ExtractedAt == nil {
		t.Fatalf("docx upload did not extract")
	}

	texts, err := svc.ExtractedTexts(ctx, "CH-4K2Q9Z")
	if err != nil {
		t.Fatalf("ExtractedTexts: %v", err)
	}
	if len(texts) != 1 {
		t.Fatalf("texts = %d, want 1", len(texts))
	}
	if !strings.Contains(texts[0], "First paragraph of the brief.") {
		t.Fatalf("extracted text missing content: %q", texts[0])
	}
}

func TestSaveImageSkipsExtraction(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	payload := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

	attachment, err := svc.Save(ctx, "CH-4K2Q9Z", "user-1", "scan.png", int64(len(payload)), bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if attachment.ExtractedAt != nil {
		t.Fatalf("image upload should not extract")
	}

	texts, err := svc.ExtractedTexts(ctx, "CH-4K2Q9Z")
	if err != nil {
		t.Fatalf("ExtractedTexts: %v", err)
	}
	if len(texts) != 0 {
		t.Fatalf("texts = %d, want 0", len(texts))
	}
}

func TestOpenRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	payload := buildDocx(t, "Round trip content.")

	attachment, err := svc.Save(ctx, "CH-4K2Q9Z", "user-1", "brief.docx", int64(len(payload)), bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, body, err := svc.Open(ctx, attachment.ID)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer body.Close()
	if got.FileName != "brief.docx" {
		t.Fatalf("file name = %q", got.FileName)
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !bytes.Equal(raw, payload) {
		t.Fatalf("stored payload differs from upload")
	}
}

func TestOpenUnknownAttachment(t *testing.T) {
	svc := newTestService(t)

	if _, _, err := svc.Open(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
