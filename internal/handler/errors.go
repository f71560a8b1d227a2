package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/brunomcduarte96/deploy-smartlegal/internal/model"
	"github.com/brunomcduarte96/deploy-smartlegal/internal/observability"
	"github.com/brunomcduarte96/deploy-smartlegal/internal/service"
	"github.com/brunomcduarte96/deploy-smartlegal/internal/store"
	"github.com/brunomcduarte96/deploy-smartlegal/internal/validation"
	"github.com/gin-gonic/gin"
)

// Messages shown to staff, chosen by error kind.
const (
	msgAuth           = "Erro de autenticação. Por favor, faça login novamente."
	msgDrive          = "Erro ao acessar o Google Drive. Tente novamente em alguns minutos."
	msgDatabase       = "Erro ao acessar o banco de dados. Tente novamente em alguns minutos."
	msgValidation     = "Dados inválidos. Verifique os campos e tente novamente."
	msgLLM            = "Erro ao consultar o assistente de IA. Tente novamente em alguns minutos."
	msgGeneric        = "Ocorreu um erro. Por favor, tente novamente."
	msgNotFound       = "Registro não encontrado."
	msgNotConfigured  = "Serviço indisponível: integração não configurada."
	msgUnsupported    = "Formato de arquivo não suportado."
	msgClientHasCases = "Não é possível excluir este cliente pois existem casos associados a ele. " +
		"Para excluir o cliente, primeiro exclua todos os casos relacionados."
)

// classify maps an error chain to the HTTP status and the message shown to staff.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrClientHasCases):
		return http.StatusConflict, msgClientHasCases
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, msgNotFound
	case errors.Is(err, service.ErrDocumentsNotFound):
		return http.StatusNotFound, service.ErrDocumentsNotFound.Error()
	case errors.Is(err, service.ErrUnsupportedFormat):
		return http.StatusBadRequest, msgUnsupported
	case errors.Is(err, service.ErrNotConfigured):
		return http.StatusServiceUnavailable, msgNotConfigured
	case errors.Is(err, service.ErrNoSpeech):
		return http.StatusUnprocessableEntity, service.ErrNoSpeech.Error()
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest, msgValidation
	case errors.Is(err, model.ErrAuth):
		return http.StatusUnauthorized, msgAuth
	case errors.Is(err, model.ErrDrive):
		return http.StatusBadGateway, msgDrive
	case errors.Is(err, model.ErrLLM):
		return http.StatusBadGateway, msgLLM
	case errors.Is(err, model.ErrDatabase):
		return http.StatusInternalServerError, msgDatabase
	default:
		return http.StatusInternalServerError, msgGeneric
	}
}

// respondError logs err and writes {"error", "detail"} plus "fields" for validation errors.
func respondError(c *gin.Context, err error) {
	status, msg := classify(err)
	body := gin.H{"error": msg, "detail": err.Error()}

	var fields validation.Errors
	if errors.As(err, &fields) {
		body["fields"] = fields
	}

	logger := observability.Logger(c)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err.Error())
	} else {
		logger.Warn("request rejected", "status", status, "error", err.Error())
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

// bindError reports a request that could not be bound, with field messages when the
// validator rejected it.
func bindError(c *gin.Context, err error) {
	if fields, ok := validation.FromBinding(err); ok {
		respondError(c, fields)
		return
	}
	respondError(c, model.Kind(model.ErrValidation, fmt.Errorf("corpo da requisição inválido: %w", err)))
}

func unavailable(c *gin.Context, msg, detail string) {
	c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": msg, "detail": detail})
}

func parseID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, model.Kind(model.ErrValidation, fmt.Errorf("id inválido: %q", c.Param(param))))
		return 0, false
	}
	return id, true
}

var errCaseClientMismatch = errors.New("o caso não pertence ao cliente informado")
