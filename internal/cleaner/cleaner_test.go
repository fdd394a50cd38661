// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package cleaner

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/cleandoc/internal/docx"
)

const xmlDecl = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\r\n"
const mainNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

func para(text string) string {
	return `<w:p><w:r><w:t>` + text + `</w:t></w:r></w:p>`
}

func wrapDocument(body string) string {
	return xmlDecl + `<w:document ` + mainNS + `><w:body>` + body + `<w:sectPr/></w:body></w:document>`
}

func wrapHeader(content string) string {
	return xmlDecl + `<w:hdr ` + mainNS + `>` + content + `</w:hdr>`
}

func wrapFooter(content string) string {
	return xmlDecl + `<w:ftr ` + mainNS + `>` + content + `</w:ftr>`
}

// buildDocx assembles a minimal DOCX package in memory. parts maps entry
// names (word/document.xml, word/header1.xml, ...) to their XML.
func buildDocx(t *testing.T, parts map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	names := []string{"[Content_Types].xml", "word/document.xml",
		"word/header1.xml", "word/header2.xml", "word/footer1.xml"}
	if _, ok := parts["[Content_Types].xml"]; !ok {
		parts["[Content_Types].xml"] = `<Types/>`
	}
	for _, name := range names {
		content, ok := parts[name]
		if !ok {
			continue
		}
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("create entry %s: %v", name, err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("write entry %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

// readPart extracts one entry from a DOCX byte stream.
func readPart(t *testing.T, data []byte, name string) string {
	t.Helper()

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("output is not a zip: %v", err)
	}
	for _, f := range reader.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		return string(content)
	}
	t.Fatalf("entry %s not found in output", name)
	return ""
}

// bodyTexts returns the text of every body paragraph in a cleaned package.
func bodyTexts(t *testing.T, data []byte) []string {
	t.Helper()

	pkg, err := docx.Open(data)
	if err != nil {
		t.Fatalf("reopen cleaned package: %v", err)
	}
	var texts []string
	for _, p := range pkg.Body().Descendants("p") {
		texts = append(texts, paragraphText(p))
	}
	return texts
}

func TestClean_HeaderPhraseParagraphRemoved(t *testing.T) {
	data := buildDocx(t, map[string]string{
		"word/document.xml": wrapDocument(para("contenido de auditoria")),
		"word/header1.xml": wrapHeader(
			para("ÓRGANO DE FISCALIZACIÓN SUPERIOR") +
				para("Hoja 1 de 3")),
	})

	_, stats, err := Default().Clean(data, "test.docx")
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}

	if stats.ParagraphsCleaned != 1 {
		t.Errorf("Expected 1 paragraph cleaned, got %d", stats.ParagraphsCleaned)
	}
}

func TestClean_HeaderOutputDropsPhraseKeepsRest(t *testing.T) {
	data := buildDocx(t, map[string]string{
		"word/document.xml": wrapDocument(para("contenido")),
		"word/header1.xml": wrapHeader(
			para("DIRECCIÓN DE AUDITORÍA A ENTES ESTATALES") +
				para("Hoja 1 de 3")),
	})

	out, _, err := Default().Clean(data, "test.docx")
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}

	header := readPart(t, out, "word/header1.xml")
	if strings.Contains(header, "DIRECCI") {
		t.Errorf("Institutional phrase still present in header:\n%s", header)
	}
	if !strings.Contains(header, "Hoja 1 de 3") {
		t.Errorf("Unrelated header paragraph was lost:\n%s", header)
	}
}

func TestClean_HeaderImageRemoved_TableImagePreserved(t *testing.T) {
	header := wrapHeader(
		`<w:p><w:r><w:drawing><w:inline/></w:drawing></w:r></w:p>` +
			`<w:tbl><w:tr><w:tc><w:p><w:r><w:drawing><w:inline/></w:drawing></w:r></w:p></w:tc></w:tr></w:tbl>`)

	data := buildDocx(t, map[string]string{
		"word/document.xml": wrapDocument(para("contenido")),
		"word/header1.xml":  header,
	})

	out, stats, err := Default().Clean(data, "test.docx")
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}

	if stats.ImagesRemoved != 1 {
		t.Errorf("Expected 1 image removed, got %d", stats.ImagesRemoved)
	}

	cleanedHeader := readPart(t, out, "word/header1.xml")
	if got := strings.Count(cleanedHeader, "<w:drawing>"); got != 1 {
		t.Errorf("Expected exactly the table image to survive, found %d drawings:\n%s", got, cleanedHeader)
	}
	if !strings.Contains(cleanedHeader, "<w:tbl>") {
		t.Errorf("Table structure was lost:\n%s", cleanedHeader)
	}
}

func TestClean_PictWithTextboxKeptButScrubbed(t *testing.T) {
	header := wrapHeader(
		`<w:p><w:r><w:pict><w:txbxContent>` +
			para("ÓRGANO DE FISCALIZACIÓN SUPERIOR") +
			`</w:txbxContent></w:pict></w:r></w:p>`)

	data := buildDocx(t, map[string]string{
		"word/document.xml": wrapDocument(para("contenido")),
		"word/header1.xml":  header,
	})

	out, stats, err := Default().Clean(data, "test.docx")
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}

	if stats.ImagesRemoved != 0 {
		t.Errorf("Textbox pict counted as image: %d", stats.ImagesRemoved)
	}
	if stats.TextboxesCleaned != 1 {
		t.Errorf("Expected 1 textbox cleaned, got %d", stats.TextboxesCleaned)
	}

	cleanedHeader := readPart(t, out, "word/header1.xml")
	if !strings.Contains(cleanedHeader, "<w:pict>") {
		t.Errorf("Pict carrying the textbox was removed:\n%s", cleanedHeader)
	}
	if strings.Contains(cleanedHeader, "FISCALIZACI") {
		t.Errorf("Textbox boilerplate still present:\n%s", cleanedHeader)
	}
}

func TestClean_TextboxCountedOncePerShape(t *testing.T) {
	header := wrapHeader(
		`<w:p><w:r><w:pict><w:txbxContent>` +
			para("ÓRGANO DE FISCALIZACIÓN SUPERIOR") +
			para("DIRECCIÓN DE AUDITORÍA A ENTES ESTATALES") +
			`</w:txbxContent></w:pict></w:r></w:p>`)

	data := buildDocx(t, map[string]string{
		"word/document.xml": wrapDocument(para("contenido")),
		"word/header1.xml":  header,
	})

	_, stats, err := Default().Clean(data, "test.docx")
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}

	if stats.TextboxesCleaned != 1 {
		t.Errorf("Two matches in one shape should count once, got %d", stats.TextboxesCleaned)
	}
}

func TestClean_BodyParagraphKeepsResidualText(t *testing.T) {
	data := buildDocx(t, map[string]string{
		"word/document.xml": wrapDocument(
			para("Anexo del ÓRGANO DE FISCALIZACIÓN SUPERIOR correspondiente")),
	})

	out, stats, err := Default().Clean(data, "test.docx")
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}

	if stats.ParagraphsCleaned != 1 {
		t.Errorf("Expected 1 paragraph cleaned, got %d", stats.ParagraphsCleaned)
	}
	if stats.ParagraphsRemoved != 0 {
		t.Errorf("Mixed-content paragraph should not be removed, removed=%d", stats.ParagraphsRemoved)
	}

	texts := bodyTexts(t, out)
	if len(texts) != 1 || texts[0] != "Anexo del correspondiente" {
		t.Errorf("Unexpected residual text: %q", texts)
	}
}

func TestClean_BodyPureBoilerplateParagraphRemoved(t *testing.T) {
	data := buildDocx(t, map[string]string{
		"word/document.xml": wrapDocument(
			para("ÓRGANO DE FISCALIZACIÓN SUPERIOR") +
				para("contenido sustantivo")),
	})

	out, stats, err := Default().Clean(data, "test.docx")
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}

	if stats.ParagraphsCleaned != 1 || stats.ParagraphsRemoved != 1 {
		t.Errorf("Expected cleaned=1 removed=1, got cleaned=%d removed=%d",
			stats.ParagraphsCleaned, stats.ParagraphsRemoved)
	}

	texts := bodyTexts(t, out)
	if len(texts) != 1 || texts[0] != "contenido sustantivo" {
		t.Errorf("Unexpected body paragraphs after clean: %q", texts)
	}
}

func TestClean_PhraseSplitAcrossRuns(t *testing.T) {
	split := `<w:p><w:r><w:t>ÓRGANO DE FISCALIZA</w:t></w:r><w:r><w:t>CIÓN SUPERIOR</w:t></w:r></w:p>`
	data := buildDocx(t, map[string]string{
		"word/document.xml": wrapDocument(split + para("contenido")),
	})

	out, stats, err := Default().Clean(data, "test.docx")
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}

	if stats.ParagraphsCleaned != 1 {
		t.Errorf("Phrase split across runs was not matched, cleaned=%d", stats.ParagraphsCleaned)
	}
	texts := bodyTexts(t, out)
	if len(texts) != 1 || texts[0] != "contenido" {
		t.Errorf("Unexpected body paragraphs after clean: %q", texts)
	}
}

func TestClean_AccentAndCaseVariants(t *testing.T) {
	data := buildDocx(t, map[string]string{
		"word/document.xml": wrapDocument(
			para("organo de fiscalizacion superior") +
				para("Direccion De Auditoria A Entes Estatales") +
				para("contenido")),
	})

	_, stats, err := Default().Clean(data, "test.docx")
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}

	if stats.ParagraphsCleaned != 2 {
		t.Errorf("Accent/case variants not matched, cleaned=%d", stats.ParagraphsCleaned)
	}
}

func TestClean_SignatureTruncation(t *testing.T) {
	data := buildDocx(t, map[string]string{
		"word/document.xml": wrapDocument(
			para("observaciones de la auditoria") +
				para("Elaboró:") +
				para("Lic. Nombre Apellido") +
				`<w:tbl><w:tr><w:tc>` + para("firma") + `</w:tc></w:tr></w:tbl>`),
	})

	out, stats, err := Default().Clean(data, "test.docx")
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}

	if !stats.SignatureRemoved {
		t.Fatal("Signature section was not removed")
	}
	if stats.ParagraphsRemoved != 3 {
		t.Errorf("Expected 3 block elements removed, got %d", stats.ParagraphsRemoved)
	}

	texts := bodyTexts(t, out)
	if len(texts) != 1 || texts[0] != "observaciones de la auditoria" {
		t.Errorf("Unexpected body paragraphs after truncation: %q", texts)
	}

	doc := readPart(t, out, "word/document.xml")
	if !strings.Contains(doc, "<w:sectPr/>") {
		t.Errorf("sectPr did not survive truncation:\n%s", doc)
	}
}

func TestClean_SignatureTriggerMatchesSpacedLetters(t *testing.T) {
	data := buildDocx(t, map[string]string{
		"word/document.xml": wrapDocument(
			para("contenido") +
				para("E l a b o r o :") +
				para("firmante")),
	})

	_, stats, err := Default().Clean(data, "test.docx")
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}

	if !stats.SignatureRemoved {
		t.Error("Spaced-out trigger was not matched")
	}
	if stats.ParagraphsRemoved != 2 {
		t.Errorf("Expected 2 paragraphs removed, got %d", stats.ParagraphsRemoved)
	}
}

func TestClean_NoTrigger_NoTruncation(t *testing.T) {
	data := buildDocx(t, map[string]string{
		"word/document.xml": wrapDocument(
			para("primer parrafo") + para("segundo parrafo")),
	})

	out, stats, err := Default().Clean(data, "test.docx")
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}

	if stats.SignatureRemoved {
		t.Error("Signature removal reported without a trigger")
	}
	if texts := bodyTexts(t, out); len(texts) != 2 {
		t.Errorf("Expected 2 paragraphs to survive, got %d", len(texts))
	}
}

func TestClean_TriggerInHeaderDoesNotTruncate(t *testing.T) {
	data := buildDocx(t, map[string]string{
		"word/document.xml": wrapDocument(para("contenido")),
		"word/header1.xml":  wrapHeader(para("Elaboró: area administrativa")),
	})

	_, stats, err := Default().Clean(data, "test.docx")
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}

	if stats.SignatureRemoved {
		t.Error("Header text must not trigger body truncation")
	}
}

func TestClean_FooterScrubbed(t *testing.T) {
	data := buildDocx(t, map[string]string{
		"word/document.xml": wrapDocument(para("contenido")),
		"word/footer1.xml": wrapFooter(
			para("ÓRGANO DE FISCALIZACIÓN SUPERIOR") + para("Pagina 1")),
	})

	out, stats, err := Default().Clean(data, "test.docx")
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}

	if stats.ParagraphsCleaned != 1 {
		t.Errorf("Expected 1 footer paragraph cleaned, got %d", stats.ParagraphsCleaned)
	}
	footer := readPart(t, out, "word/footer1.xml")
	if !strings.Contains(footer, "Pagina 1") {
		t.Errorf("Unrelated footer content was lost:\n%s", footer)
	}
}

func TestClean_Idempotent(t *testing.T) {
	data := buildDocx(t, map[string]string{
		"word/document.xml": wrapDocument(
			para("contenido") +
				para("ÓRGANO DE FISCALIZACIÓN SUPERIOR") +
				para("Elaboró:") +
				para("firmante")),
		"word/header1.xml": wrapHeader(
			`<w:p><w:r><w:drawing><w:inline/></w:drawing></w:r></w:p>` +
				para("DIRECCIÓN DE AUDITORÍA A ENTES ESTATALES")),
	})

	c := Default()

	first, stats1, err := c.Clean(data, "test.docx")
	if err != nil {
		t.Fatalf("First clean failed: %v", err)
	}
	if stats1.IsZero() {
		t.Fatal("First pass reported zero stats on a dirty document")
	}

	_, stats2, err := c.Clean(first, "test.docx")
	if err != nil {
		t.Fatalf("Second clean failed: %v", err)
	}
	if !stats2.IsZero() {
		t.Errorf("Second pass was not a no-op: %+v", stats2)
	}
}

func TestClean_InvalidInput(t *testing.T) {
	_, _, err := Default().Clean([]byte("garbage"), "bad.docx")
	if !errors.Is(err, docx.ErrNotDocx) {
		t.Errorf("Expected ErrNotDocx, got %v", err)
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(nil, "Elaboró"); err == nil {
		t.Error("Expected error for empty phrase list")
	}
	if _, err := New([]string{"frase"}, "  "); err == nil {
		t.Error("Expected error for blank trigger")
	}
	if _, err := New([]string{"frase válida"}, "Elaboró"); err != nil {
		t.Errorf("Unexpected error for valid input: %v", err)
	}
}
