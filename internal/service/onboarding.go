package service

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/brunomcduarte96/deploy-smartlegal/internal/config"
	"github.com/brunomcduarte96/deploy-smartlegal/internal/dates"
	"github.com/brunomcduarte96/deploy-smartlegal/internal/model"
	"github.com/brunomcduarte96/deploy-smartlegal/internal/store"
	"github.com/brunomcduarte96/deploy-smartlegal/internal/validation"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Onboarding step names as reported to the caller.
const (
	StepFolder       = "pasta"
	StepDocuments    = "documentos"
	StepClient       = "cliente"
	StepCase         = "caso"
	StepSheets       = "planilhas"
	StepProcuracao   = "procuracao"
	StepContrato     = "contrato"
	StepNotification = "notificacao"
)

// PDFConverter turns an upload into a PDF.
type PDFConverter interface {
	ConvertToPDF(ctx context.Context, content []byte, ext string) ([]byte, error)
}

// OnboardingNotifier is told about each finished onboarding and about its failed steps.
type OnboardingNotifier interface {
	NotifyOnboarding(result *model.OnboardingResult)
	NotifyError(operation, errorMsg string)
}

// OnboardingInput is the submitted onboarding form.
type OnboardingInput struct {
	Client     model.Client
	Identidade *model.Upload
	Residencia *model.Upload
	Outros     []model.Upload
}

// CaseRequest opens a new case for an existing client.
type CaseRequest struct {
	ClienteID            int64  `json:"cliente_id" binding:"required"`
	Caso                 string `json:"caso" binding:"required"`
	AssuntoCaso          string `json:"assunto_caso" binding:"required"`
	ResponsavelComercial string `json:"responsavel_comercial"`
}

// OnboardingService registers new clients: Drive folder, documents, database rows,
// spreadsheets and engagement documents.
type OnboardingService struct {
	store     store.Store
	workspace Workspace
	pdf       PDFConverter
	notifier  OnboardingNotifier

	now   func() time.Time
	newID func() uuid.UUID
}

// NewOnboardingService creates an OnboardingService. notifier may be nil.
func NewOnboardingService(st store.Store, ws Workspace, pdf PDFConverter, notifier OnboardingNotifier) *OnboardingService {
	return &OnboardingService{
		store:     st,
		workspace: ws,
		pdf:       pdf,
		notifier:  notifier,
		now:       dates.Now,
		newID:     uuid.New,
	}
}

type stepRecorder struct {
	steps []model.OnboardingStep
}

func (r *stepRecorder) done(name, detail string) {
	r.steps = append(r.steps, model.OnboardingStep{Name: name, Status: model.StepDone, Detail: detail})
}

func (r *stepRecorder) skipped(name, detail string) {
	r.steps = append(r.steps, model.OnboardingStep{Name: name, Status: model.StepSkipped, Detail: detail})
}

func (r *stepRecorder) failed(name string, err error) {
	log.Printf("Onboarding step %s failed: %v", name, err)
	r.steps = append(r.steps, model.OnboardingStep{Name: name, Status: model.StepFailed, Detail: err.Error()})
}

// failures lists the failed steps as "step: detail".
func (r *stepRecorder) failures() []string {
	var out []string
	for _, st := range r.steps {
		if st.Status == model.StepFailed {
			out = append(out, st.Name+": "+st.Detail)
		}
	}
	return out
}

// ValidateOnboarding checks the form and the upload extensions without remote calls.
func ValidateOnboarding(in *OnboardingInput) validation.Errors {
	errs := validation.ValidateOnboardingForm(&in.Client)
	if errs == nil {
		errs = validation.Errors{}
	}
	check := func(field string, u *model.Upload) {
		if u == nil {
			return
		}
		if !config.Contains(config.DocumentExtensions, normalizeExt(filepath.Ext(u.Name))) {
			errs[field] = ErrUnsupportedFormat.Error()
		}
	}
	check("identidade", in.Identidade)
	check("residencia", in.Residencia)
	for i := range in.Outros {
		check("outros", &in.Outros[i])
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Onboard runs the onboarding pipeline. Validation errors stop before any remote call.
// Failures after the client row exists are reported as failed steps instead of errors.
func (s *OnboardingService) Onboard(ctx context.Context, in *OnboardingInput) (*model.OnboardingResult, error) {
	if errs := ValidateOnboarding(in); errs != nil {
		return nil, errs
	}
	if s.workspace == nil {
		return nil, model.Kind(model.ErrDrive, fmt.Errorf("google workspace not configured"))
	}

	now := s.now()
	stamp := dates.Stamp(now)
	client := in.Client
	rec := &stepRecorder{}

	// 1. folder
	folderID, err := s.workspace.CreateFolder(ctx, fmt.Sprintf("%s_%s", client.NomeCompleto, stamp), "")
	if err != nil {
		return nil, fmt.Errorf("failed to create client folder: %w", err)
	}
	client.PastaDriveID = folderID
	rec.done(StepFolder, FolderURL(folderID))

	// 2. documents
	client.Documentos = s.uploadDocuments(ctx, in, folderID, stamp, rec)

	// 3. client row
	client.CreatedAt = dates.ISO(now)
	saved, err := s.store.InsertClient(ctx, &client)
	if err != nil {
		return nil, fmt.Errorf("failed to save client: %w", err)
	}
	rec.done(StepClient, fmt.Sprintf("id %d", saved.ID))

	result := &model.OnboardingResult{Client: saved, FolderID: folderID}

	// 4. case row and folder
	kase, err := s.CreateCase(ctx, CaseRequest{
		ClienteID:            saved.ID,
		Caso:                 saved.Caso,
		AssuntoCaso:          saved.AssuntoCaso,
		ResponsavelComercial: saved.ResponsavelComercial,
	})
	if err != nil {
		rec.failed(StepCase, err)
	} else {
		result.Case = kase
		rec.done(StepCase, kase.ChaveCaso)
	}

	// 5. spreadsheets
	if err := s.workspace.UpdateSheetsWithClientData(ctx, saved); err != nil {
		rec.failed(StepSheets, err)
	} else {
		rec.done(StepSheets, "")
	}

	// 6. procuração and contract
	docsFolder := folderID
	if kase != nil && kase.PastaCasoID != "" {
		docsFolder = kase.PastaCasoID
	}
	fields := TemplateFields(saved, now)
	result.ProcuracaoID = s.generateDocument(ctx, rec, StepProcuracao, config.ProcuracaoTemplateID,
		fmt.Sprintf("Procuracao - %s", saved.NomeCompleto), fields, docsFolder)
	result.ContratoID = s.generateDocument(ctx, rec, StepContrato, config.ContratoTemplateID,
		fmt.Sprintf("Contrato de Honorarios - %s", saved.NomeCompleto), fields, docsFolder)

	// 7. notification
	if s.notifier != nil && config.DiscordWebhookURL != "" {
		rec.done(StepNotification, "discord")
		result.Steps = rec.steps
		s.notifier.NotifyOnboarding(result)
		if failed := rec.failures(); len(failed) > 0 {
			s.notifier.NotifyError("onboarding "+saved.NomeCompleto, strings.Join(failed, "\n"))
		}
	} else {
		rec.skipped(StepNotification, "webhook não configurado")
		result.Steps = rec.steps
	}

	log.Printf("Client onboarded: %s (id %d, folder %s)", saved.NomeCompleto, saved.ID, folderID)
	return result, nil
}

func (s *OnboardingService) uploadDocuments(ctx context.Context, in *OnboardingInput, folderID, stamp string, rec *stepRecorder) model.Documentos {
	var docs model.Documentos
	var failures []string

	upload := func(ctx context.Context, u *model.Upload) (string, error) {
		content := u.Content
		if !IsPDF(content) {
			converted, err := s.pdf.ConvertToPDF(ctx, content, filepath.Ext(u.Name))
			if err != nil {
				return "", fmt.Errorf("%s: %w", u.Name, err)
			}
			content = converted
		}
		id, err := s.workspace.UploadFile(ctx, UploadName(stamp, u.Name), content, mimePDF, folderID)
		if err != nil {
			return "", fmt.Errorf("%s: %w", u.Name, err)
		}
		return id, nil
	}

	if in.Identidade != nil {
		if id, err := upload(ctx, in.Identidade); err != nil {
			failures = append(failures, err.Error())
		} else {
			docs.Identidade = id
		}
	}
	if in.Residencia != nil {
		if id, err := upload(ctx, in.Residencia); err != nil {
			failures = append(failures, err.Error())
		} else {
			docs.Residencia = id
		}
	}

	ids := make([]string, len(in.Outros))
	errs := make([]error, len(in.Outros))
	g, gctx := errgroup.WithContext(ctx)
	if config.UploadMaxParallel > 0 {
		g.SetLimit(config.UploadMaxParallel)
	}
	for i := range in.Outros {
		i := i
		g.Go(func() error {
			// one failed upload must not cancel the others
			ids[i], errs[i] = upload(gctx, &in.Outros[i])
			return nil
		})
	}
	_ = g.Wait()

	docs.Outros = []string{}
	for i, id := range ids {
		if errs[i] != nil {
			failures = append(failures, errs[i].Error())
			continue
		}
		docs.Outros = append(docs.Outros, id)
	}

	uploaded := len(docs.Outros)
	if docs.Identidade != "" {
		uploaded++
	}
	if docs.Residencia != "" {
		uploaded++
	}
	switch {
	case len(failures) > 0:
		rec.failed(StepDocuments, fmt.Errorf("%d enviados, falhas: %s", uploaded, strings.Join(failures, "; ")))
	case uploaded == 0:
		rec.skipped(StepDocuments, "nenhum documento enviado")
	default:
		rec.done(StepDocuments, fmt.Sprintf("%d enviados", uploaded))
	}
	return docs
}

func (s *OnboardingService) generateDocument(ctx context.Context, rec *stepRecorder, step, templateID, name string, fields map[string]string, folderID string) string {
	if templateID == "" {
		rec.skipped(step, "template não configurado")
		return ""
	}

	docID, err := s.workspace.FillDocumentTemplate(ctx, templateID, fields, name, folderID)
	if err != nil {
		rec.failed(step, err)
		return ""
	}
	if missing, err := s.workspace.UnfilledPlaceholders(ctx, docID); err == nil && len(missing) > 0 {
		log.Printf("Warning: %s still has placeholders: %s", name, strings.Join(missing, ", "))
	}

	pdf, err := s.workspace.ExportPDF(ctx, docID)
	if err != nil {
		rec.failed(step, err)
		return ""
	}
	pdfID, err := s.workspace.UploadFile(ctx, name+".pdf", pdf, mimePDF, folderID)
	if err != nil {
		rec.failed(step, err)
		return ""
	}
	rec.done(step, name+".pdf")
	return pdfID
}

// CreateCase stores a new case for an existing client, with its own folder inside the
// client's folder when the client has one.
func (s *OnboardingService) CreateCase(ctx context.Context, req CaseRequest) (*model.Case, error) {
	client, err := s.store.GetClient(ctx, req.ClienteID)
	if err != nil {
		return nil, fmt.Errorf("failed to load client: %w", err)
	}

	now := s.now()
	kase := &model.Case{
		ClienteID:            client.ID,
		NomeCliente:          client.NomeCompleto,
		Caso:                 req.Caso,
		AssuntoCaso:          req.AssuntoCaso,
		ResponsavelComercial: req.ResponsavelComercial,
		ChaveCaso:            NewCaseKey(req.AssuntoCaso, now, s.newID()),
		CreatedAt:            dates.ISO(now),
	}
	if kase.ResponsavelComercial == "" {
		kase.ResponsavelComercial = client.ResponsavelComercial
	}

	if s.workspace != nil && client.PastaDriveID != "" {
		folderID, err := s.workspace.GetOrCreateFolder(ctx, kase.ChaveCaso, client.PastaDriveID)
		if err != nil {
			return nil, fmt.Errorf("failed to create case folder: %w", err)
		}
		kase.PastaCasoID = folderID
		kase.PastaCasoURL = FolderURL(folderID)
	}

	return s.store.InsertCase(ctx, kase)
}

var nonAlnum = regexp.MustCompile(`[^A-Z0-9]+`)

var accentReplacer = strings.NewReplacer(
	"Á", "A", "À", "A", "Â", "A", "Ã", "A", "É", "E", "Ê", "E", "Í", "I",
	"Ó", "O", "Ô", "O", "Õ", "O", "Ú", "U", "Ü", "U", "Ç", "C",
)

// NewCaseKey builds "<yyyymmdd>-<ASSUNTO>-<8 hex>" such as "20240305-ATRASO-DE-VOO-1A2B3C4D".
func NewCaseKey(assunto string, now time.Time, id uuid.UUID) string {
	slug := accentReplacer.Replace(strings.ToUpper(strings.TrimSpace(assunto)))
	slug = strings.Trim(nonAlnum.ReplaceAllString(slug, "-"), "-")
	if slug == "" {
		slug = "CASO"
	}
	suffix := strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
	return fmt.Sprintf("%s-%s-%s", now.In(dates.Location()).Format("20060102"), slug, suffix)
}

// UploadName is "<stamp>_<original name>.pdf", without doubling a .pdf suffix.
func UploadName(stamp, original string) string {
	base := filepath.Base(original)
	if strings.EqualFold(filepath.Ext(base), ".pdf") {
		base = base[:len(base)-4]
	}
	return fmt.Sprintf("%s_%s.pdf", stamp, base)
}

// TemplateFields are the {placeholders} filled in the procuração and fee contract.
func TemplateFields(c *model.Client, now time.Time) map[string]string {
	return map[string]string{
		"nome":          c.NomeCompleto,
		"cpf":           c.CPF,
		"rg":            c.RG,
		"orgao_emissor": c.OrgaoEmissor,
		"endereco":      c.FullAddress(),
		"cep":           c.CEP,
		"email":         c.Email,
		"celular":       c.Celular,
		"caso":          c.Caso,
		"assunto":       c.AssuntoCaso,
		"nacionalidade": c.Nacionalidade,
		"estado_civil":  c.EstadoCivil,
		"profissao":     c.Profissao,
		"data":          dates.BR(now),
		"data_extenso":  dates.PorExtenso(now),
	}
}
