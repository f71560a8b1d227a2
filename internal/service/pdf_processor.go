package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/brunomcduarte96/deploy-smartlegal/internal/model"
)

// ErrUnsupportedFormat is returned for uploads that cannot be turned into a PDF.
var ErrUnsupportedFormat = errors.New("formato não suportado")

var pdfMagic = []byte("%PDF-")

// OfficeConverter converts Office documents to PDF remotely.
type OfficeConverter interface {
	ConvertOfficeToPDF(ctx context.Context, content []byte, mimeType string) ([]byte, error)
}

// PDFProcessor normalises uploaded documents to PDF.
type PDFProcessor struct {
	office OfficeConverter
}

// NewPDFProcessor creates a PDFProcessor. office may be nil, which disables docx conversion.
func NewPDFProcessor(office OfficeConverter) *PDFProcessor {
	return &PDFProcessor{office: office}
}

// IsPDF reports whether content starts with the PDF header.
func IsPDF(content []byte) bool {
	return bytes.HasPrefix(content, pdfMagic)
}

// normalizeExt lowercases ext and strips the leading dot.
func normalizeExt(ext string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
}

// ConvertToPDF converts an uploaded file to PDF based on its extension.
func (p *PDFProcessor) ConvertToPDF(ctx context.Context, content []byte, ext string) ([]byte, error) {
	switch normalizeExt(ext) {
	case "pdf":
		if !IsPDF(content) {
			return nil, fmt.Errorf("invalid pdf content: %w", ErrUnsupportedFormat)
		}
		return content, nil
	case "jpg", "jpeg", "png":
		return runTool(ctx, "img2pdf", "input."+normalizeExt(ext), content, "output.pdf",
			func(in, out string) []string { return []string{in, "-o", out} })
	case "docx":
		if p.office == nil {
			return nil, fmt.Errorf("docx conversion unavailable: %w", ErrUnsupportedFormat)
		}
		return p.office.ConvertOfficeToPDF(ctx, content, mimeDOCX)
	default:
		return nil, fmt.Errorf("%s: %w", ext, ErrUnsupportedFormat)
	}
}

// MergePDFs concatenates PDFs in order with pdfunite.
func (p *PDFProcessor) MergePDFs(ctx context.Context, contents [][]byte) ([]byte, error) {
	switch len(contents) {
	case 0:
		return nil, model.Kind(model.ErrValidation, fmt.Errorf("nenhum PDF para juntar"))
	case 1:
		return contents[0], nil
	}

	tmpDir, err := os.MkdirTemp("", "pdfmerge-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	args := make([]string, 0, len(contents)+1)
	for i, c := range contents {
		path := filepath.Join(tmpDir, fmt.Sprintf("part-%03d.pdf", i+1))
		if err := os.WriteFile(path, c, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write temp pdf: %w", err)
		}
		args = append(args, path)
	}
	outPath := filepath.Join(tmpDir, "merged.pdf")
	args = append(args, outPath)

	cmd := exec.CommandContext(ctx, "pdfunite", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdfunite failed: %v, stderr: %s", err, stderr.String())
	}

	merged, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read merged pdf: %w", err)
	}
	log.Printf("Merged %d PDFs (%d bytes)", len(contents), len(merged))
	return merged, nil
}

// CombineUploads converts every upload to PDF and merges them in order into one file.
func (p *PDFProcessor) CombineUploads(ctx context.Context, uploads []model.Upload) ([]byte, error) {
	parts := make([][]byte, 0, len(uploads))
	for _, u := range uploads {
		content := u.Content
		if !IsPDF(content) {
			converted, err := p.ConvertToPDF(ctx, content, filepath.Ext(u.Name))
			if err != nil {
				return nil, fmt.Errorf("%s: %w", u.Name, err)
			}
			content = converted
		}
		parts = append(parts, content)
	}
	return p.MergePDFs(ctx, parts)
}

// runTool writes content to a temp dir, runs name with the args built from the input and
// output paths and returns the output file.
func runTool(ctx context.Context, name, inputName string, content []byte, outputName string, buildArgs func(in, out string) []string) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", name+"-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	inPath := filepath.Join(tmpDir, inputName)
	if err := os.WriteFile(inPath, content, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write temp input: %w", err)
	}
	outPath := filepath.Join(tmpDir, outputName)

	cmd := exec.CommandContext(ctx, name, buildArgs(inPath, outPath)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s failed: %v, stderr: %s", name, err, stderr.String())
	}

	out, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s output: %w", name, err)
	}
	return out, nil
}
