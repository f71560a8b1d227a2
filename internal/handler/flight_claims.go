package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/brunomcduarte96/deploy-smartlegal/internal/model"
	"github.com/brunomcduarte96/deploy-smartlegal/internal/service"
	"github.com/gin-gonic/gin"
)

func (h *API) requireAI(c *gin.Context) bool {
	if h.services.AIRouter == nil {
		unavailable(c, msgLLM, "gemini not configured")
		return false
	}
	return true
}

// ExtractFlightInfo turns the client's account into structured flight details.
func (h *API) ExtractFlightInfo(c *gin.Context) {
	var req struct {
		Texto string `json:"texto" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if !h.requireAI(c) {
		return
	}

	info, err := h.services.AIRouter.ExtractFlightInfo(c.Request.Context(), req.Texto)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// GenerateFacts drafts the "dos fatos" narrative. The prompt is returned so staff can
// store the accepted narrative as a training pair.
func (h *API) GenerateFacts(c *gin.Context) {
	var req struct {
		Info  model.FlightInfo `json:"info"`
		Texto string           `json:"texto" binding:"required"`
		Caso  string           `json:"caso"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if !h.requireAI(c) {
		return
	}

	service.NormalizeFlightInfo(&req.Info)
	facts, err := h.services.AIRouter.GenerateFacts(c.Request.Context(), &req.Info, req.Texto, req.Caso)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"fatos":  facts,
		"prompt": service.BuildFactsPrompt(&req.Info, req.Texto),
	})
}

// SaveTrainingExample stores a prompt and the narrative accepted by staff.
func (h *API) SaveTrainingExample(c *gin.Context) {
	var req struct {
		Caso       string `json:"caso" binding:"required"`
		InputText  string `json:"input_text" binding:"required"`
		OutputText string `json:"output_text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	saved, err := h.services.Store.InsertTrainingExample(c.Request.Context(), &model.TrainingExample{
		Caso:       strings.TrimSpace(req.Caso),
		InputText:  req.InputText,
		OutputText: req.OutputText,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

type petitionRequest struct {
	ClienteID      int64    `json:"cliente_id" binding:"required"`
	EmpresaID      int64    `json:"empresa_id" binding:"required"`
	Vara           string   `json:"vara" binding:"required"`
	Fatos          string   `json:"fatos"`
	Jurisprudencia []int64  `json:"jurisprudencia_ids"`
	Pedidos        []string `json:"pedidos"`
}

// petition loads the parties and selected case-law, keeping the order of the ids sent.
func (h *API) petition(ctx context.Context, req *petitionRequest) (*model.Petition, *model.Client, error) {
	client, err := h.services.Store.GetClient(ctx, req.ClienteID)
	if err != nil {
		return nil, nil, err
	}
	company, err := h.services.Store.GetCompany(ctx, req.EmpresaID)
	if err != nil {
		return nil, nil, err
	}
	caseLaw := make([]model.CaseLaw, 0, len(req.Jurisprudencia))
	for _, id := range req.Jurisprudencia {
		cl, err := h.services.Store.GetCaseLaw(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		caseLaw = append(caseLaw, *cl)
	}

	p, err := h.services.Petitions.BuildPetition(client, company, req.Vara, req.Fatos, caseLaw, req.Pedidos)
	if err != nil {
		return nil, nil, err
	}
	return p, client, nil
}

// BuildPetition assembles the petition sections and their plain-text rendering.
func (h *API) BuildPetition(c *gin.Context) {
	var req petitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	p, _, err := h.petition(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"petition": p, "texto": service.RenderPetition(p)})
}

// GeneratePetitionDocument fills the petition template into the case folder.
func (h *API) GeneratePetitionDocument(c *gin.Context) {
	var req struct {
		petitionRequest
		CasoID int64 `json:"caso_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	ctx := c.Request.Context()
	kase, err := h.services.Store.GetCase(ctx, req.CasoID)
	if err != nil {
		respondError(c, err)
		return
	}
	p, client, err := h.petition(ctx, &req.petitionRequest)
	if err != nil {
		respondError(c, err)
		return
	}
	if kase.ClienteID != client.ID {
		respondError(c, model.Kind(model.ErrValidation, errCaseClientMismatch))
		return
	}

	doc, err := h.services.Petitions.GeneratePetitionDocument(ctx, p, kase)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}
