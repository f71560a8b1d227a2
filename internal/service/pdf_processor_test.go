package service

import (
	"context"
	"errors"
	"testing"

	"github.com/brunomcduarte96/deploy-smartlegal/internal/model"
)

type fakeOffice struct {
	gotMime string
	out     []byte
}

func (f *fakeOffice) ConvertOfficeToPDF(_ context.Context, _ []byte, mimeType string) ([]byte, error) {
	f.gotMime = mimeType
	return f.out, nil
}

func TestIsPDF(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want bool
	}{
		{"header", []byte("%PDF-1.7\n..."), true},
		{"png", []byte("\x89PNG\r\n"), false},
		{"short", []byte("%PD"), false},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		if got := IsPDF(tt.in); got != tt.want {
			t.Fatalf("%s: IsPDF() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestConvertToPDF_PassThroughAndReject(t *testing.T) {
	p := NewPDFProcessor(nil)
	ctx := context.Background()

	pdf := []byte("%PDF-1.4 body")
	got, err := p.ConvertToPDF(ctx, pdf, ".PDF")
	if err != nil || string(got) != string(pdf) {
		t.Fatalf("pdf passthrough: got=%q err=%v", got, err)
	}

	if _, err := p.ConvertToPDF(ctx, []byte("not a pdf"), "pdf"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat for fake pdf, got %v", err)
	}

	if _, err := p.ConvertToPDF(ctx, []byte("x"), "gif"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat for gif, got %v", err)
	}

	if _, err := p.ConvertToPDF(ctx, []byte("x"), "docx"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat without office converter, got %v", err)
	}
}

func TestConvertToPDF_DocxUsesOfficeConverter(t *testing.T) {
	office := &fakeOffice{out: []byte("%PDF-converted")}
	p := NewPDFProcessor(office)

	got, err := p.ConvertToPDF(context.Background(), []byte("PK..."), "docx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "%PDF-converted" {
		t.Fatalf("unexpected output: %q", got)
	}
	if office.gotMime != mimeDOCX {
		t.Fatalf("unexpected mime type: %s", office.gotMime)
	}
}

func TestMergePDFs_Trivial(t *testing.T) {
	p := NewPDFProcessor(nil)
	if _, err := p.MergePDFs(context.Background(), nil); err == nil {
		t.Fatalf("expected error for empty input")
	}
	one := []byte("%PDF-one")
	got, err := p.MergePDFs(context.Background(), [][]byte{one})
	if err != nil || string(got) != string(one) {
		t.Fatalf("single pdf should be returned as is: got=%q err=%v", got, err)
	}
}

func TestCombineUploads(t *testing.T) {
	p := NewPDFProcessor(&fakeOffice{out: []byte("%PDF-converted")})

	got, err := p.CombineUploads(context.Background(), []model.Upload{{Name: "contrato.docx", Content: []byte("PK")}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "%PDF-converted" {
		t.Fatalf("unexpected output: %q", got)
	}

	_, err = p.CombineUploads(context.Background(), []model.Upload{{Name: "video.mov", Content: []byte("x")}})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}

	_, err = p.CombineUploads(context.Background(), nil)
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
