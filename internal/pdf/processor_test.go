package pdf

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"strings"
	"testing"

	"github.com/NextFutureHub/ocr-quality-service/internal/ocr"
)

type fakeRecognizer struct {
	calls int
	text  string
}

func (f *fakeRecognizer) Recognize(ctx context.Context, imageBytes []byte) ocr.Result {
	f.calls++
	return ocr.Result{Text: f.text}
}

// pdfBuilder assembles a minimal well-formed PDF, tracking byte offsets
// while writing so the xref table comes out correct.
type pdfBuilder struct {
	buf     bytes.Buffer
	offsets []int
}

func newPDFBuilder() *pdfBuilder {
	b := &pdfBuilder{}
	b.buf.WriteString("%PDF-1.4\n")
	return b
}

func (b *pdfBuilder) obj(body string) {
	b.offsets = append(b.offsets, b.buf.Len())
	fmt.Fprintf(&b.buf, "%d 0 obj\n%s\nendobj\n", len(b.offsets), body)
}

func (b *pdfBuilder) finish(trailer string) []byte {
	xref := b.buf.Len()
	fmt.Fprintf(&b.buf, "xref\n0 %d\n", len(b.offsets)+1)
	b.buf.WriteString("0000000000 65535 f \n")
	for _, off := range b.offsets {
		fmt.Fprintf(&b.buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b.buf, "trailer\n<< /Size %d %s >>\nstartxref\n%d\n%%%%EOF\n", len(b.offsets)+1, trailer, xref)
	return b.buf.Bytes()
}

// textPDF builds a one-page PDF whose only content is the given text.
// The text must not contain PDF string delimiters.
func textPDF(text string) []byte {
	b := newPDFBuilder()
	b.obj("<< /Type /Catalog /Pages 2 0 R >>")
	b.obj("<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.obj("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>")
	b.obj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
	b.obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	b.obj("<< /Title (Test Document) /Author (QA) >>")
	return b.finish("/Root 1 0 R /Info 6 0 R")
}

// imagePDF builds a one-page PDF with no text layer and a single
// embedded grayscale JPEG, the shape of a scanned page.
func imagePDF(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 32, 32))
	for i := range img.Pix {
		img.Pix[i] = 230
	}
	var jbuf bytes.Buffer
	if err := jpeg.Encode(&jbuf, img, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	b := newPDFBuilder()
	b.obj("<< /Type /Catalog /Pages 2 0 R >>")
	b.obj("<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.obj("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /XObject << /Im1 4 0 R >> >> /Contents 5 0 R >>")
	b.obj(fmt.Sprintf("<< /Type /XObject /Subtype /Image /Width 32 /Height 32 /ColorSpace /DeviceGray /BitsPerComponent 8 /Filter /DCTDecode /Length %d >>\nstream\n%s\nendstream", jbuf.Len(), jbuf.String()))
	content := "q 200 0 0 200 100 400 cm /Im1 Do Q"
	b.obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	return b.finish("/Root 1 0 R")
}

func TestIsPDF(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     []byte
		want     bool
	}{
		{"pdf extension", "scan.pdf", []byte("not checked"), true},
		{"uppercase extension", "SCAN.PDF", nil, true},
		{"magic without extension", "upload.bin", []byte("%PDF-1.7\nrest"), true},
		{"neither", "upload.bin", []byte("GIF89a"), false},
		{"empty", "notes.txt", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPDF(tt.filename, tt.data); got != tt.want {
				t.Errorf("IsPDF(%q) = %v, want %v", tt.filename, got, tt.want)
			}
		})
	}
}

func TestInfo(t *testing.T) {
	p := NewProcessor(nil)
	info := p.Info(textPDF("Hello PDF text layer"))
	if info.Pages != 1 {
		t.Fatalf("Pages = %d, want 1", info.Pages)
	}
	if info.Title != "Test Document" {
		t.Errorf("Title = %q, want %q", info.Title, "Test Document")
	}
	if info.Author != "QA" {
		t.Errorf("Author = %q, want %q", info.Author, "QA")
	}
	if info.Encrypted {
		t.Error("Encrypted = true for a plain document")
	}
}

func TestInfoInvalidData(t *testing.T) {
	p := NewProcessor(nil)
	info := p.Info([]byte("this is not a pdf"))
	if info.Pages != 0 {
		t.Errorf("Pages = %d, want 0", info.Pages)
	}
	if info.Encrypted {
		t.Error("Encrypted = true for junk data")
	}
}

func TestInfoEncryptMarker(t *testing.T) {
	p := NewProcessor(nil)
	info := p.Info([]byte("%PDF-1.4 broken /Encrypt 12 0 R"))
	if !info.Encrypted {
		t.Error("Encrypted = false for data carrying an /Encrypt entry")
	}
}

func TestProcessTextLayer(t *testing.T) {
	rec := &fakeRecognizer{text: "should not be used"}
	p := NewProcessor(rec)

	doc, err := p.Process(context.Background(), textPDF("Hello PDF text layer"))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(doc.Pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(doc.Pages))
	}
	pg := doc.Pages[0]
	if pg.Method != MethodText {
		t.Errorf("Method = %q, want %q", pg.Method, MethodText)
	}
	if !strings.Contains(pg.Text, "Hello PDF text layer") {
		t.Errorf("page text %q does not contain the embedded layer", pg.Text)
	}
	if !strings.Contains(doc.Text(), "Hello PDF text layer") {
		t.Errorf("document text %q does not contain the embedded layer", doc.Text())
	}
	if rec.calls != 0 {
		t.Errorf("recognizer ran %d times on a born-digital page", rec.calls)
	}
	if doc.Info.Pages != 1 {
		t.Errorf("Info.Pages = %d, want 1", doc.Info.Pages)
	}
}

func TestProcessShortTextFallsBackToOCR(t *testing.T) {
	rec := &fakeRecognizer{text: "unused"}
	p := NewProcessor(rec)

	doc, err := p.Process(context.Background(), textPDF("Hi"))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(doc.Pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(doc.Pages))
	}
	pg := doc.Pages[0]
	if pg.Method != MethodOCR {
		t.Errorf("Method = %q, want %q for a page below the text threshold", pg.Method, MethodOCR)
	}
	if pg.Text != "" {
		t.Errorf("Text = %q, want empty with no images to recognize", pg.Text)
	}
	if rec.calls != 0 {
		t.Errorf("recognizer ran %d times with no extracted images", rec.calls)
	}
}

func TestProcessScannedPage(t *testing.T) {
	rec := &fakeRecognizer{text: "Распознанный текст страницы"}
	p := NewProcessor(rec)

	doc, err := p.Process(context.Background(), imagePDF(t))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(doc.Pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(doc.Pages))
	}
	pg := doc.Pages[0]
	if pg.Method != MethodOCR {
		t.Errorf("Method = %q, want %q", pg.Method, MethodOCR)
	}
	if pg.Text != rec.text {
		t.Errorf("Text = %q, want %q", pg.Text, rec.text)
	}
	if rec.calls != 1 {
		t.Errorf("recognizer ran %d times, want 1", rec.calls)
	}
}

func TestProcessInvalidData(t *testing.T) {
	p := NewProcessor(&fakeRecognizer{})
	if _, err := p.Process(context.Background(), []byte("not a pdf at all")); err == nil {
		t.Fatal("expected an error for unreadable data")
	}
}

func TestDocumentText(t *testing.T) {
	doc := &Document{Pages: []Page{
		{Number: 1, Text: "первая страница", Method: MethodText},
		{Number: 2, Text: "", Method: MethodOCR},
		{Number: 3, Text: "третья страница", Method: MethodOCR},
	}}
	want := "первая страница\nтретья страница"
	if got := doc.Text(); got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
}
