package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/brunomcduarte96/deploy-smartlegal/internal/model"
	"github.com/brunomcduarte96/deploy-smartlegal/internal/service"
	"github.com/brunomcduarte96/deploy-smartlegal/internal/store"
	"github.com/brunomcduarte96/deploy-smartlegal/internal/validation"
	"github.com/gin-gonic/gin"
)

func bindChanges(c *gin.Context) (map[string]any, bool) {
	var changes map[string]any
	if err := c.ShouldBindJSON(&changes); err != nil {
		bindError(c, err)
		return nil, false
	}
	if len(changes) == 0 {
		respondError(c, model.Kind(model.ErrValidation, fmt.Errorf("nenhum campo para atualizar")))
		return nil, false
	}
	return changes, true
}

// --- clientes ---

// ListClients searches clients. ?nome= matches the full name exactly, ?nome_parcial= matches
// part of the name and ?q= matches name, e-mail or CPF, each up to ?limit=.
func (h *API) ListClients(c *gin.Context) {
	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(c, validation.Errors{"limit": "Valor inválido"})
			return
		}
		limit = n
	}

	ctx := c.Request.Context()
	var clients []model.Client
	var err error
	switch {
	case strings.TrimSpace(c.Query("nome")) != "":
		var client *model.Client
		client, err = h.services.Store.GetClientByName(ctx, strings.TrimSpace(c.Query("nome")))
		if client != nil {
			clients = []model.Client{*client}
		}
	case strings.TrimSpace(c.Query("nome_parcial")) != "":
		clients, err = h.services.Store.SearchClientsByPartialName(ctx, c.Query("nome_parcial"), limit)
	default:
		clients, err = h.services.Store.SearchClients(ctx, c.Query("q"), limit)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	if clients == nil {
		clients = []model.Client{}
	}
	c.JSON(http.StatusOK, gin.H{"clients": clients})
}

func (h *API) GetClient(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	client, err := h.services.Store.GetClient(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

// UpdateClient applies a partial update; only the fields sent are validated.
func (h *API) UpdateClient(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	changes, ok := bindChanges(c)
	if !ok {
		return
	}
	if err := validation.ValidateClientChanges(changes).Err(); err != nil {
		respondError(c, err)
		return
	}

	client, err := h.services.Store.UpdateClient(c.Request.Context(), id, changes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

// DeleteClient refuses with 409 while the client still has cases.
func (h *API) DeleteClient(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.services.Store.DeleteClient(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "OK", "message": "Cliente excluído com sucesso"})
}

func (h *API) ListClientCases(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if _, err := h.services.Store.GetClient(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	cases, err := h.services.Store.ListClientCases(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if cases == nil {
		cases = []model.Case{}
	}
	c.JSON(http.StatusOK, gin.H{"cases": cases})
}

// --- casos ---

// CreateCase opens a case for an existing client, with its Drive folder when possible.
func (h *API) CreateCase(c *gin.Context) {
	var req service.CaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	kase, err := h.services.Onboarding.CreateCase(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, kase)
}

// ListCases returns every case, newest first.
func (h *API) ListCases(c *gin.Context) {
	cases, err := h.services.Store.ListCases(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if cases == nil {
		cases = []model.Case{}
	}
	c.JSON(http.StatusOK, gin.H{"cases": cases})
}

func (h *API) GetCase(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	kase, err := h.services.Store.GetCase(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, kase)
}

func (h *API) UpdateCase(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	changes, ok := bindChanges(c)
	if !ok {
		return
	}
	if raw, ok := changes["cliente_id"]; ok {
		client, ok := h.caseClient(c, raw)
		if !ok {
			return
		}
		changes["cliente_id"] = client.ID
		if _, set := changes["nome_cliente"]; !set {
			changes["nome_cliente"] = client.NomeCompleto
		}
	}
	kase, err := h.services.Store.UpdateCase(c.Request.Context(), id, changes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, kase)
}

// caseClient resolves the cliente_id sent in a case update to an existing client.
func (h *API) caseClient(c *gin.Context, raw any) (*model.Client, bool) {
	var id int64
	switch v := raw.(type) {
	case float64:
		if v == math.Trunc(v) {
			id = int64(v)
		}
	case json.Number:
		id, _ = v.Int64()
	case string:
		id, _ = strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	}
	if id <= 0 {
		respondError(c, validation.Errors{"cliente_id": "Valor inválido"})
		return nil, false
	}

	client, err := h.services.Store.GetClient(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(c, validation.Errors{"cliente_id": "Cliente não encontrado"})
		return nil, false
	}
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return client, true
}

func (h *API) DeleteCase(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.services.Store.DeleteCase(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "OK", "message": "Caso excluído com sucesso"})
}

// --- empresas ---

func (h *API) ListCompanies(c *gin.Context) {
	companies, err := h.services.Store.ListCompanies(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if companies == nil {
		companies = []model.Company{}
	}
	c.JSON(http.StatusOK, gin.H{"companies": companies})
}

func (h *API) CreateCompany(c *gin.Context) {
	var co model.Company
	if err := c.ShouldBindJSON(&co); err != nil {
		bindError(c, err)
		return
	}
	if err := validation.ValidateCompany(&co).Err(); err != nil {
		respondError(c, err)
		return
	}
	created, err := h.services.Store.InsertCompany(c.Request.Context(), &co)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *API) UpdateCompany(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	changes, ok := bindChanges(c)
	if !ok {
		return
	}
	if err := validation.ValidateCompanyChanges(changes).Err(); err != nil {
		respondError(c, err)
		return
	}
	co, err := h.services.Store.UpdateCompany(c.Request.Context(), id, changes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, co)
}

func (h *API) DeleteCompany(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.services.Store.DeleteCompany(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

// --- jurisprudências ---

// ListCaseLaw returns the citations ordered by secao.
func (h *API) ListCaseLaw(c *gin.Context) {
	items, err := h.services.Store.ListCaseLaw(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if items == nil {
		items = []model.CaseLaw{}
	}
	c.JSON(http.StatusOK, gin.H{"caselaw": items})
}

func (h *API) CreateCaseLaw(c *gin.Context) {
	var cl model.CaseLaw
	if err := c.ShouldBindJSON(&cl); err != nil {
		bindError(c, err)
		return
	}
	if err := validation.ValidateCaseLaw(&cl).Err(); err != nil {
		respondError(c, err)
		return
	}
	created, err := h.services.Store.InsertCaseLaw(c.Request.Context(), &cl)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *API) UpdateCaseLaw(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	changes, ok := bindChanges(c)
	if !ok {
		return
	}
	if err := validation.ValidateCaseLawChanges(changes).Err(); err != nil {
		respondError(c, err)
		return
	}
	cl, err := h.services.Store.UpdateCaseLaw(c.Request.Context(), id, changes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cl)
}

func (h *API) DeleteCaseLaw(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.services.Store.DeleteCaseLaw(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}
