// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package archive names cleaned output files and packages batch results
// into a ZIP together with a plain-text cleaning report.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/cleandoc/internal/cleaner"
)

// CleanedPrefix is prepended to every cleaned file name. The watch folder
// also uses it to recognize its own output and skip re-processing.
const CleanedPrefix = "limpia_"

// ReportName is the aggregate report entry inside a batch ZIP.
const ReportName = "reporte_limpieza.txt"

// Item is one successfully cleaned document headed into a batch archive.
type Item struct {
	Name  string
	Data  []byte
	Stats *cleaner.Stats
}

// Failure records a document that could not be cleaned. Failures never
// abort the batch; they are listed in the report instead.
type Failure struct {
	Name   string
	Reason string
}

// Totals aggregates counters across a batch for the response headers.
type Totals struct {
	ImagesRemoved     int
	ParagraphsCleaned int
	TextboxesCleaned  int
	SignaturesRemoved int
}

// SanitizeFilename reduces an uploaded name to a safe base name: path
// components stripped, risky runes replaced, extension forced lowercase.
func SanitizeFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == ".." || base == "/" {
		return "documento"
	}
	ext := strings.ToLower(filepath.Ext(base))
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	var b strings.Builder
	for _, r := range stem {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.' || r == ' ':
			b.WriteRune(r)
		case r > 127:
			// Keep accented letters; Spanish file names are the norm here.
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	stem = strings.TrimSpace(b.String())
	if stem == "" {
		stem = "documento"
	}
	return stem + ext
}

// CleanedName returns the output name for a cleaned document.
func CleanedName(name string) string {
	return CleanedPrefix + SanitizeFilename(name)
}

// BuildZip packages cleaned documents and the aggregate report into a
// ZIP stream. Entry order follows the input order; the report goes last.
func BuildZip(items []Item, failures []Failure) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	for _, item := range items {
		fw, err := w.Create(CleanedName(item.Name))
		if err != nil {
			return nil, fmt.Errorf("create archive entry %s: %w", item.Name, err)
		}
		if _, err := fw.Write(item.Data); err != nil {
			return nil, fmt.Errorf("write archive entry %s: %w", item.Name, err)
		}
	}

	fw, err := w.Create(ReportName)
	if err != nil {
		return nil, fmt.Errorf("create report entry: %w", err)
	}
	if _, err := fw.Write([]byte(BuildReport(items, failures))); err != nil {
		return nil, fmt.Errorf("write report entry: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}

// BuildReport renders the human-readable cleaning report for a batch.
func BuildReport(items []Item, failures []Failure) string {
	var b strings.Builder

	b.WriteString("REPORTE DE LIMPIEZA DE DOCUMENTOS\n")
	b.WriteString("=================================\n")
	fmt.Fprintf(&b, "Fecha: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Documentos procesados: %d\n", len(items))
	fmt.Fprintf(&b, "Documentos con error: %d\n\n", len(failures))

	for _, item := range items {
		fmt.Fprintf(&b, "%s\n", SanitizeFilename(item.Name))
		fmt.Fprintf(&b, "  Imagenes eliminadas:      %d\n", item.Stats.ImagesRemoved)
		fmt.Fprintf(&b, "  Parrafos limpiados:       %d\n", item.Stats.ParagraphsCleaned)
		fmt.Fprintf(&b, "  Cuadros de texto:         %d\n", item.Stats.TextboxesCleaned)
		fmt.Fprintf(&b, "  Seccion de firmas:        %s\n", yesNo(item.Stats.SignatureRemoved))
		fmt.Fprintf(&b, "  Parrafos eliminados:      %d\n\n", item.Stats.ParagraphsRemoved)
	}

	if len(failures) > 0 {
		b.WriteString("ERRORES\n")
		b.WriteString("-------\n")
		for _, f := range failures {
			fmt.Fprintf(&b, "%s: %s\n", SanitizeFilename(f.Name), f.Reason)
		}
		b.WriteString("\n")
	}

	totals := SumTotals(items)
	b.WriteString("TOTALES\n")
	b.WriteString("-------\n")
	fmt.Fprintf(&b, "Imagenes eliminadas:  %d\n", totals.ImagesRemoved)
	fmt.Fprintf(&b, "Parrafos limpiados:   %d\n", totals.ParagraphsCleaned)
	fmt.Fprintf(&b, "Cuadros de texto:     %d\n", totals.TextboxesCleaned)
	fmt.Fprintf(&b, "Firmas eliminadas:    %d\n", totals.SignaturesRemoved)

	return b.String()
}

// SumTotals adds up the batch counters.
func SumTotals(items []Item) Totals {
	var t Totals
	for _, item := range items {
		t.ImagesRemoved += item.Stats.ImagesRemoved
		t.ParagraphsCleaned += item.Stats.ParagraphsCleaned
		t.TextboxesCleaned += item.Stats.TextboxesCleaned
		if item.Stats.SignatureRemoved {
			t.SignaturesRemoved++
		}
	}
	return t
}

func yesNo(v bool) string {
	if v {
		return "si"
	}
	return "no"
}
