package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/brunomcduarte96/deploy-smartlegal/internal/config"
	"github.com/brunomcduarte96/deploy-smartlegal/internal/model"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	mimeFolder    = "application/vnd.google-apps.folder"
	mimeGoogleDoc = "application/vnd.google-apps.document"
	mimePDF       = "application/pdf"
	mimeDOCX      = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var googleScopes = []string{drive.DriveScope, docs.DocumentsScope, sheets.SpreadsheetsScope}

// Workspace is the subset of Google Drive, Docs and Sheets used by the intake flows.
type Workspace interface {
	CreateFolder(ctx context.Context, name, parentID string) (string, error)
	GetOrCreateFolder(ctx context.Context, name, parentID string) (string, error)
	UploadFile(ctx context.Context, name string, content []byte, mimeType, folderID string) (string, error)
	FillDocumentTemplate(ctx context.Context, templateID string, replacements map[string]string, name, folderID string) (string, error)
	UnfilledPlaceholders(ctx context.Context, docID string) ([]string, error)
	ExportPDF(ctx context.Context, docID string) ([]byte, error)
	ConvertOfficeToPDF(ctx context.Context, content []byte, mimeType string) ([]byte, error)
	DeleteFile(ctx context.Context, fileID string) error
	AppendRows(ctx context.Context, sheetID, rng string, rows [][]interface{}) error
	UpdateSheetsWithClientData(ctx context.Context, c *model.Client) error
	FindCaseDocuments(ctx context.Context, folderID string) (*CaseDocuments, error)
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
}

// DriveClient talks to Drive v3, Docs v1 and Sheets v4 with one set of credentials.
type DriveClient struct {
	service       *drive.Service
	docsService   *docs.Service
	sheetsService *sheets.Service
	opts          []option.ClientOption
	folderCache   map[string]string // key: "parentID:folderName", value: folderID
	folderMu      sync.Mutex
}

var _ Workspace = (*DriveClient)(nil)

// NewDriveClient authenticates with the service account in GOOGLE_CREDENTIALS, then the
// OAuth refresh token, then application default credentials.
func NewDriveClient(ctx context.Context) (*DriveClient, error) {
	opts, err := googleClientOptions(ctx)
	if err != nil {
		return nil, err
	}
	return newDriveClientWithOptions(ctx, opts...)
}

func googleClientOptions(ctx context.Context) ([]option.ClientOption, error) {
	if strings.TrimSpace(config.GoogleCredentials) != "" {
		log.Println("Google client: using service account credentials")
		return []option.ClientOption{
			option.WithCredentialsJSON([]byte(config.GoogleCredentials)),
			option.WithScopes(googleScopes...),
		}, nil
	}

	creds, err := GetOAuthCredentials(ctx)
	if err != nil {
		log.Printf("Warning: Failed to get OAuth credentials for Drive, falling back to default credentials: %v", err)
		return []option.ClientOption{option.WithScopes(googleScopes...)}, nil
	}
	if _, err := creds.GetAccessToken(); err != nil {
		return nil, fmt.Errorf("failed to get access token for Drive: %w", err)
	}
	return []option.ClientOption{option.WithTokenSource(creds.TokenSource())}, nil
}

func newDriveClientWithOptions(ctx context.Context, opts ...option.ClientOption) (*DriveClient, error) {
	service, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, model.Kind(model.ErrDrive, fmt.Errorf("failed to create drive service: %w", err))
	}
	docsService, err := docs.NewService(ctx, opts...)
	if err != nil {
		return nil, model.Kind(model.ErrDrive, fmt.Errorf("failed to create docs service: %w", err))
	}
	sheetsService, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, model.Kind(model.ErrDrive, fmt.Errorf("failed to create sheets service: %w", err))
	}

	return &DriveClient{
		service:       service,
		docsService:   docsService,
		sheetsService: sheetsService,
		opts:          opts,
		folderCache:   make(map[string]string),
	}, nil
}

func driveErr(format string, err error) error {
	return model.Kind(model.ErrDrive, fmt.Errorf(format+": %w", err))
}

// FolderURL is the browser link of a Drive folder.
func FolderURL(folderID string) string {
	return "https://drive.google.com/drive/folders/" + folderID
}

// escapeQuery escapes a value for a Drive search query literal.
func escapeQuery(v string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v)
}

// CreateFolder creates a folder under parentID (ROOT_FOLDER_ID when empty).
func (c *DriveClient) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	if parentID == "" {
		parentID = config.RootFolderID
	}
	folder := &drive.File{Name: name, MimeType: mimeFolder}
	if parentID != "" {
		folder.Parents = []string{parentID}
	}

	created, err := c.service.Files.Create(folder).
		Fields("id").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", driveErr("failed to create folder", err)
	}

	log.Printf("Folder created: %s (%s)", name, created.Id)
	return created.Id, nil
}

// GetOrCreateFolder returns the id of the named folder under parentID, creating it if needed.
func (c *DriveClient) GetOrCreateFolder(ctx context.Context, folderName string, parentID string) (string, error) {
	if parentID == "" {
		parentID = config.RootFolderID
	}
	cacheKey := fmt.Sprintf("%s:%s", parentID, folderName)

	c.folderMu.Lock()
	defer c.folderMu.Unlock()

	if cachedID, exists := c.folderCache[cacheKey]; exists {
		return cachedID, nil
	}

	query := fmt.Sprintf("name='%s' and '%s' in parents and mimeType='%s' and trashed=false",
		escapeQuery(folderName), escapeQuery(parentID), mimeFolder)
	fileList, err := c.service.Files.List().
		Q(query).
		Fields("files(id, name)").
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", driveErr("failed to search folder", err)
	}

	if len(fileList.Files) > 0 {
		folderID := fileList.Files[0].Id
		c.folderCache[cacheKey] = folderID
		return folderID, nil
	}

	folderID, err := c.CreateFolder(ctx, folderName, parentID)
	if err != nil {
		return "", err
	}
	c.folderCache[cacheKey] = folderID
	return folderID, nil
}

// UploadFile stores content in folderID and returns the new file id.
func (c *DriveClient) UploadFile(ctx context.Context, name string, content []byte, mimeType, folderID string) (string, error) {
	file := &drive.File{Name: name, Parents: []string{folderID}}
	created, err := c.service.Files.Create(file).
		Media(bytes.NewReader(content), googleapi.ContentType(mimeType)).
		Fields("id").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", driveErr("failed to upload file", err)
	}

	log.Printf("File uploaded: %s (%s, %d bytes)", name, created.Id, len(content))
	return created.Id, nil
}

// DeleteFile removes a file permanently.
func (c *DriveClient) DeleteFile(ctx context.Context, fileID string) error {
	if err := c.service.Files.Delete(fileID).SupportsAllDrives(true).Context(ctx).Do(); err != nil {
		return driveErr("failed to delete file", err)
	}
	return nil
}

// ExportPDF exports a Google Doc as PDF.
func (c *DriveClient) ExportPDF(ctx context.Context, docID string) ([]byte, error) {
	resp, err := c.service.Files.Export(docID, mimePDF).Context(ctx).Download()
	if err != nil {
		return nil, driveErr("failed to export pdf", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, driveErr("failed to read exported pdf", err)
	}
	return data, nil
}

// ConvertOfficeToPDF uploads an Office document as a Google Doc, exports it as PDF
// and deletes the intermediate copy.
func (c *DriveClient) ConvertOfficeToPDF(ctx context.Context, content []byte, mimeType string) ([]byte, error) {
	if mimeType == "" {
		mimeType = mimeDOCX
	}
	tmp := &drive.File{
		Name:     fmt.Sprintf("conversao_%d", time.Now().UnixNano()),
		MimeType: mimeGoogleDoc,
	}
	if config.RootFolderID != "" {
		tmp.Parents = []string{config.RootFolderID}
	}

	created, err := c.service.Files.Create(tmp).
		Media(bytes.NewReader(content), googleapi.ContentType(mimeType)).
		Fields("id").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, driveErr("failed to upload document for conversion", err)
	}
	defer func() {
		if err := c.DeleteFile(context.WithoutCancel(ctx), created.Id); err != nil {
			log.Printf("Warning: failed to delete conversion copy %s: %v", created.Id, err)
		}
	}()

	return c.ExportPDF(ctx, created.Id)
}

// CaseDocuments are the two engagement PDFs stored in a case folder.
type CaseDocuments struct {
	Procuracao *model.FileInfo
	Contrato   *model.FileInfo
}

// FindCaseDocuments locates the "Procuracao" and "Contrato de Honorarios" PDFs in folderID.
func (c *DriveClient) FindCaseDocuments(ctx context.Context, folderID string) (*CaseDocuments, error) {
	query := fmt.Sprintf("'%s' in parents and trashed=false and (name contains 'Procuracao' or name contains 'Contrato de Honorarios')",
		escapeQuery(folderID))
	fileList, err := c.service.Files.List().
		Q(query).
		Fields("files(id, name, mimeType, parents)").
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, driveErr("failed to list case documents", err)
	}

	files := make([]*model.FileInfo, 0, len(fileList.Files))
	for _, f := range fileList.Files {
		files = append(files, &model.FileInfo{ID: f.Id, Name: f.Name, MimeType: f.MimeType, Parents: f.Parents})
	}
	return pickCaseDocuments(files), nil
}

func pickCaseDocuments(files []*model.FileInfo) *CaseDocuments {
	docs := &CaseDocuments{}
	for _, f := range files {
		if f.MimeType != mimePDF {
			continue
		}
		switch {
		case docs.Procuracao == nil && strings.Contains(f.Name, "Procuracao"):
			docs.Procuracao = f
		case docs.Contrato == nil && strings.Contains(f.Name, "Contrato de Honorarios"):
			docs.Contrato = f
		}
	}
	return docs
}

// DownloadFile downloads file content, retrying transient failures with exponential backoff.
func (c *DriveClient) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	maxRetries := config.API.DownloadRetry
	if maxRetries <= 0 {
		maxRetries = 1
	}

	svc := c.service
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(1<<uint(attempt-1)) * time.Second
			log.Printf("Download retry %d/%d for %s in %s: %v", attempt+1, maxRetries, fileID, wait, lastErr)
			select {
			case <-ctx.Done():
				return nil, driveErr("download cancelled", ctx.Err())
			case <-time.After(wait):
			}
			// fresh service for this call only, in case the token expired mid-flight
			if fresh, err := drive.NewService(ctx, c.opts...); err == nil {
				svc = fresh
			}
		}

		data, err := downloadOnce(ctx, svc, fileID)
		if err == nil {
			log.Printf("Download complete: %s (%d bytes)", fileID, len(data))
			return data, nil
		}
		lastErr = err

		var gerr *googleapi.Error
		if errors.As(err, &gerr) && (gerr.Code == http.StatusNotFound || gerr.Code == http.StatusForbidden) {
			break
		}
	}

	return nil, driveErr(fmt.Sprintf("download failed after %d attempts", maxRetries), lastErr)
}

func downloadOnce(ctx context.Context, svc *drive.Service, fileID string) ([]byte, error) {
	resp, err := svc.Files.Get(fileID).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}
