package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/brunomcduarte96/deploy-smartlegal/internal/model"
)

type fakeUpload struct {
	Name, MimeType, FolderID string
	Content                  []byte
}

type fakeFill struct {
	TemplateID, Name, FolderID string
	Fields                     map[string]string
}

// fakeWorkspace records calls in memory.
type fakeWorkspace struct {
	mu      sync.Mutex
	seq     int
	folders map[string]string // id -> name
	byPath  map[string]string // parent/name -> id
	uploads []fakeUpload
	fills   []fakeFill
	sheets  []*model.Client
	files   map[string][]byte

	caseDocs   *CaseDocuments
	sheetsErr  error
	uploadErr  map[string]error // by file name
	downloaded []string
}

func newFakeWorkspace() *fakeWorkspace {
	return &fakeWorkspace{folders: map[string]string{}, byPath: map[string]string{}, files: map[string][]byte{}, uploadErr: map[string]error{}}
}

func (f *fakeWorkspace) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakeWorkspace) CreateFolder(_ context.Context, name, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID("folder")
	f.folders[id] = name
	return id, nil
}

func (f *fakeWorkspace) GetOrCreateFolder(_ context.Context, name, parentID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := parentID + "/" + name
	if id, ok := f.byPath[key]; ok {
		return id, nil
	}
	id := f.nextID("folder")
	f.folders[id] = name
	f.byPath[key] = id
	return id, nil
}

func (f *fakeWorkspace) UploadFile(_ context.Context, name string, content []byte, mimeType, folderID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.uploadErr[name]; err != nil {
		return "", err
	}
	id := f.nextID("file")
	f.uploads = append(f.uploads, fakeUpload{Name: name, MimeType: mimeType, FolderID: folderID, Content: content})
	f.files[id] = content
	return id, nil
}

func (f *fakeWorkspace) FillDocumentTemplate(_ context.Context, templateID string, replacements map[string]string, name, folderID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fills = append(f.fills, fakeFill{TemplateID: templateID, Name: name, FolderID: folderID, Fields: replacements})
	return f.nextID("doc"), nil
}

func (f *fakeWorkspace) UnfilledPlaceholders(context.Context, string) ([]string, error) {
	return nil, nil
}

func (f *fakeWorkspace) ExportPDF(_ context.Context, docID string) ([]byte, error) {
	return []byte("%PDF-" + docID), nil
}

func (f *fakeWorkspace) ConvertOfficeToPDF(context.Context, []byte, string) ([]byte, error) {
	return []byte("%PDF-office"), nil
}

func (f *fakeWorkspace) DeleteFile(context.Context, string) error { return nil }

func (f *fakeWorkspace) AppendRows(context.Context, string, string, [][]interface{}) error {
	return nil
}

func (f *fakeWorkspace) UpdateSheetsWithClientData(_ context.Context, c *model.Client) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sheetsErr != nil {
		return f.sheetsErr
	}
	f.sheets = append(f.sheets, c)
	return nil
}

func (f *fakeWorkspace) FindCaseDocuments(context.Context, string) (*CaseDocuments, error) {
	if f.caseDocs == nil {
		return &CaseDocuments{}, nil
	}
	return f.caseDocs, nil
}

func (f *fakeWorkspace) DownloadFile(_ context.Context, fileID string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloaded = append(f.downloaded, fileID)
	return []byte("%PDF-" + fileID), nil
}

var _ Workspace = (*fakeWorkspace)(nil)
