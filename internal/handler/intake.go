package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/brunomcduarte96/deploy-smartlegal/internal/config"
	"github.com/brunomcduarte96/deploy-smartlegal/internal/model"
	"github.com/brunomcduarte96/deploy-smartlegal/internal/service"
	"github.com/gin-gonic/gin"
)

// onboardingForm mirrors the onboarding form fields. Field rules are checked by the service
// so every problem is reported at once.
type onboardingForm struct {
	NomeCompleto         string `form:"nome_completo"`
	Nacionalidade        string `form:"nacionalidade"`
	EstadoCivil          string `form:"estado_civil"`
	Profissao            string `form:"profissao"`
	Email                string `form:"email"`
	Celular              string `form:"celular"`
	DataNascimento       string `form:"data_nascimento"`
	RG                   string `form:"rg"`
	OrgaoEmissor         string `form:"orgao_emissor"`
	CPF                  string `form:"cpf"`
	Caso                 string `form:"caso"`
	AssuntoCaso          string `form:"assunto_caso"`
	ResponsavelComercial string `form:"responsavel_comercial"`
	Endereco             string `form:"endereco"`
	Bairro               string `form:"bairro"`
	Cidade               string `form:"cidade"`
	Estado               string `form:"estado"`
	CEP                  string `form:"cep"`
}

func (f *onboardingForm) client() model.Client {
	trim := strings.TrimSpace
	return model.Client{
		NomeCompleto:         trim(f.NomeCompleto),
		Nacionalidade:        trim(f.Nacionalidade),
		EstadoCivil:          trim(f.EstadoCivil),
		Profissao:            trim(f.Profissao),
		Email:                trim(f.Email),
		Celular:              trim(f.Celular),
		DataNascimento:       trim(f.DataNascimento),
		RG:                   trim(f.RG),
		OrgaoEmissor:         trim(f.OrgaoEmissor),
		CPF:                  trim(f.CPF),
		Caso:                 trim(f.Caso),
		AssuntoCaso:          trim(f.AssuntoCaso),
		ResponsavelComercial: trim(f.ResponsavelComercial),
		Endereco:             trim(f.Endereco),
		Bairro:               trim(f.Bairro),
		Cidade:               trim(f.Cidade),
		Estado:               trim(f.Estado),
		CEP:                  trim(f.CEP),
	}
}

func readUpload(fh *multipart.FileHeader) (*model.Upload, error) {
	if fh.Size > config.MaxUploadBytes {
		return nil, model.Kind(model.ErrValidation, fmt.Errorf("%s excede o tamanho máximo de %d MB", fh.Filename, config.MaxUploadBytes>>20))
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return &model.Upload{Name: filepath.Base(fh.Filename), Content: content}, nil
}

// formUpload reads the single file sent as field, or nil when absent.
func formUpload(form *multipart.Form, field string) (*model.Upload, error) {
	files := form.File[field]
	if len(files) == 0 {
		return nil, nil
	}
	return readUpload(files[0])
}

// Onboard registers a new client from the multipart onboarding form.
func (h *API) Onboard(c *gin.Context) {
	var form onboardingForm
	if err := c.ShouldBind(&form); err != nil {
		bindError(c, err)
		return
	}
	mf, err := c.MultipartForm()
	if err != nil {
		respondError(c, model.Kind(model.ErrValidation, fmt.Errorf("formulário multipart inválido: %w", err)))
		return
	}

	in := &service.OnboardingInput{Client: form.client()}
	if in.Identidade, err = formUpload(mf, "identidade"); err != nil {
		respondError(c, err)
		return
	}
	if in.Residencia, err = formUpload(mf, "residencia"); err != nil {
		respondError(c, err)
		return
	}
	for _, fh := range mf.File["outros"] {
		u, err := readUpload(fh)
		if err != nil {
			respondError(c, err)
			return
		}
		in.Outros = append(in.Outros, *u)
	}

	result, err := h.services.Onboarding.Onboard(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// SendEngagementEmail e-mails the procuração and fee contract of a case to its client.
func (h *API) SendEngagementEmail(c *gin.Context) {
	caseID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		ClientID int64 `json:"client_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.services.Documents.SendEngagementEmail(c.Request.Context(), req.ClientID, caseID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// MergeDocuments converts the uploaded "arquivos" to PDF and returns them as one PDF.
func (h *API) MergeDocuments(c *gin.Context) {
	mf, err := c.MultipartForm()
	if err != nil {
		respondError(c, model.Kind(model.ErrValidation, fmt.Errorf("formulário multipart inválido: %w", err)))
		return
	}
	files := mf.File["arquivos"]
	if len(files) == 0 {
		respondError(c, model.Kind(model.ErrValidation, fmt.Errorf("nenhum arquivo enviado")))
		return
	}

	uploads := make([]model.Upload, 0, len(files))
	for _, fh := range files {
		u, err := readUpload(fh)
		if err != nil {
			respondError(c, err)
			return
		}
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(u.Name)), ".")
		if !config.Contains(config.DocumentExtensions, ext) {
			respondError(c, fmt.Errorf("%s: %w", u.Name, service.ErrUnsupportedFormat))
			return
		}
		uploads = append(uploads, *u)
	}

	merged, err := h.services.PDFProcessor.CombineUploads(c.Request.Context(), uploads)
	if err != nil {
		respondError(c, err)
		return
	}
	name := strings.TrimSpace(c.PostForm("nome"))
	if name == "" {
		name = "documentos"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", strings.TrimSuffix(name, ".pdf")+".pdf"))
	c.Data(http.StatusOK, "application/pdf", merged)
}

func audioUpload(c *gin.Context) (*model.Upload, string, bool) {
	fh, err := c.FormFile("audio")
	if err != nil {
		respondError(c, model.Kind(model.ErrValidation, fmt.Errorf("arquivo de áudio obrigatório: %w", err)))
		return nil, "", false
	}
	u, err := readUpload(fh)
	if err != nil {
		respondError(c, err)
		return nil, "", false
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(u.Name)), ".")
	if !config.Contains(config.AudioExtensions, ext) {
		respondError(c, fmt.Errorf("%s: %w", u.Name, service.ErrUnsupportedFormat))
		return nil, "", false
	}
	return u, ext, true
}

// ConvertAudio returns the uploaded audio as 16 kHz mono WAV.
func (h *API) ConvertAudio(c *gin.Context) {
	u, ext, ok := audioUpload(c)
	if !ok {
		return
	}
	wav, err := service.ConvertToWAV(c.Request.Context(), u.Content, ext)
	if err != nil {
		respondError(c, err)
		return
	}
	name := strings.TrimSuffix(u.Name, filepath.Ext(u.Name)) + ".wav"
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "audio/wav", wav)
}

// TranscribeAudio returns the pt-BR transcript of the uploaded audio.
func (h *API) TranscribeAudio(c *gin.Context) {
	if h.services.AIRouter == nil {
		unavailable(c, msgLLM, "gemini not configured")
		return
	}
	u, ext, ok := audioUpload(c)
	if !ok {
		return
	}
	text, err := h.services.AIRouter.Transcribe(c.Request.Context(), u.Content, service.AudioMimeType(ext))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"texto": text})
}
