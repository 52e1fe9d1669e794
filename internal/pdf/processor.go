// Package pdf turns uploaded PDF documents into text. Born-digital pages
// are read through their embedded text layer; scanned pages fall back to
// extracting the page images and running them through the OCR pipeline.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"sort"
	"strings"

	lpdf "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/NextFutureHub/ocr-quality-service/internal/models"
	"github.com/NextFutureHub/ocr-quality-service/internal/ocr"
)

var pdfMagic = []byte("%PDF")

// minTextRunes is the smallest embedded text layer worth trusting.
// Shorter layers are scan artifacts and the page goes to OCR instead.
const minTextRunes = 10

// Method values reported per page.
const (
	MethodText = "text"
	MethodOCR  = "ocr"
)

// Recognizer runs the OCR candidate pipeline on a single raster image.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) ocr.Result
}

// Page is one processed page of a PDF.
type Page struct {
	Number int
	Text   string
	Method string
}

// Document is the outcome of processing a whole PDF.
type Document struct {
	Info  models.PDFInfo
	Pages []Page
}

// Text joins the non-empty page texts in page order.
func (d *Document) Text() string {
	parts := make([]string, 0, len(d.Pages))
	for _, pg := range d.Pages {
		if pg.Text != "" {
			parts = append(parts, pg.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// Processor extracts text from PDFs, falling back to OCR for scanned pages.
type Processor struct {
	recognizer Recognizer
}

func NewProcessor(r Recognizer) *Processor {
	return &Processor{recognizer: r}
}

// IsPDF reports whether an upload looks like a PDF, by extension or by
// the %PDF magic prefix.
func IsPDF(filename string, data []byte) bool {
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return true
	}
	return bytes.HasPrefix(data, pdfMagic)
}

// Info reads page count and document metadata. Unreadable files yield a
// zero-page info instead of an error.
func (p *Processor) Info(data []byte) (info models.PDFInfo) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[PDF] Metadata read failed: %v", r)
		}
	}()
	reader, err := lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		info.Encrypted = bytes.Contains(data, []byte("/Encrypt"))
		return info
	}
	info.Pages = reader.NumPage()
	trailer := reader.Trailer()
	if trailer.IsNull() {
		return info
	}
	info.Encrypted = !trailer.Key("Encrypt").IsNull()
	meta := trailer.Key("Info")
	if meta.IsNull() {
		return info
	}
	info.Title = meta.Key("Title").Text()
	info.Author = meta.Key("Author").Text()
	info.Subject = meta.Key("Subject").Text()
	info.Creator = meta.Key("Creator").Text()
	info.Producer = meta.Key("Producer").Text()
	return info
}

// Process extracts every page, preferring the embedded text layer and
// running OCR over extracted page images where no usable layer exists.
func (p *Processor) Process(ctx context.Context, data []byte) (*Document, error) {
	doc := &Document{Info: p.Info(data)}
	texts := p.pageTexts(data)
	images, imagePages := p.pageImages(data)

	count := doc.Info.Pages
	if imagePages > count {
		count = imagePages
	}
	if count == 0 {
		return nil, fmt.Errorf("pdf: no readable pages")
	}

	for n := 1; n <= count; n++ {
		text := strings.TrimSpace(texts[n])
		if len([]rune(text)) > minTextRunes {
			doc.Pages = append(doc.Pages, Page{Number: n, Text: text, Method: MethodText})
			continue
		}
		doc.Pages = append(doc.Pages, Page{Number: n, Text: p.recognizePage(ctx, n, images[n]), Method: MethodOCR})
	}
	return doc, nil
}

func (p *Processor) recognizePage(ctx context.Context, pageNr int, images [][]byte) string {
	if p.recognizer == nil {
		return ""
	}
	if len(images) == 0 {
		log.Printf("[PDF] Page %d has no text layer and no images", pageNr)
		return ""
	}
	parts := make([]string, 0, len(images))
	for _, img := range images {
		res := p.recognizer.Recognize(ctx, img)
		if res.Text != "" {
			parts = append(parts, res.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// pageTexts reads the embedded text layer per page. Pages the parser
// cannot decode stay absent from the map and fall through to OCR.
func (p *Processor) pageTexts(data []byte) (texts map[int]string) {
	texts = make(map[int]string)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[PDF] Text layer read aborted: %v", r)
		}
	}()
	reader, err := lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return texts
	}
	for n := 1; n <= reader.NumPage(); n++ {
		if text, ok := pageText(reader, n); ok {
			texts[n] = text
		}
	}
	return texts
}

// pageText pulls one page's text layer, containing parser panics.
func pageText(reader *lpdf.Reader, n int) (text string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	page := reader.Page(n)
	if page.V.IsNull() {
		return "", false
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return "", false
	}
	return text, true
}

// pageImages extracts embedded scan images keyed by page number, along
// with the page count pdfcpu reports.
func (p *Processor) pageImages(data []byte) (images map[int][][]byte, pages int) {
	images = make(map[int][][]byte)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[PDF] Image extraction aborted: %v", r)
		}
	}()
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		log.Printf("[PDF] Validation failed, skipping image extraction: %v", err)
		return images, 0
	}
	pages = ctx.PageCount
	for n := 1; n <= pages; n++ {
		extracted, err := pdfcpu.ExtractPageImages(ctx, n, false)
		if err != nil {
			continue
		}
		objNrs := make([]int, 0, len(extracted))
		for objNr := range extracted {
			objNrs = append(objNrs, objNr)
		}
		sort.Ints(objNrs)
		for _, objNr := range objNrs {
			raw, err := io.ReadAll(extracted[objNr])
			if err != nil || len(raw) == 0 {
				continue
			}
			images[n] = append(images[n], raw)
		}
	}
	return images, pages
}
