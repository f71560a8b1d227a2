// Package handler exposes the intake service as a JSON API.
package handler

import (
	"log"
	"net/http"

	"github.com/brunomcduarte96/deploy-smartlegal/internal/config"
	"github.com/brunomcduarte96/deploy-smartlegal/internal/observability"
	"github.com/brunomcduarte96/deploy-smartlegal/internal/service"
	"github.com/brunomcduarte96/deploy-smartlegal/internal/validation"
	"github.com/gin-gonic/gin"
)

// API serves every HTTP endpoint from the shared services.
type API struct {
	services *service.Services
}

// NewAPI creates an API.
func NewAPI(services *service.Services) *API {
	return &API{services: services}
}

// NewRouter builds the gin engine with middlewares and routes.
func NewRouter(services *service.Services) *gin.Engine {
	if err := validation.RegisterBindings(); err != nil {
		log.Printf("Warning: failed to register validation tags: %v", err)
	}

	router := gin.New()
	router.Use(gin.Recovery(), observability.RequestContextMiddleware(), observability.AccessLogMiddleware())
	router.MaxMultipartMemory = config.MaxUploadBytes

	NewAPI(services).Register(router)
	return router
}

// Register adds the routes to router.
func (h *API) Register(router gin.IRouter) {
	router.GET("/health", h.HealthCheck)

	api := router.Group("/api")
	api.POST("/auth/login", h.Login)

	var verifier TokenVerifier
	if h.services.Auth != nil {
		verifier = h.services.Auth
	}
	secured := api.Group("", StaffAuthMiddleware(verifier))

	secured.GET("/menu", h.Menu)

	secured.GET("/clients", h.ListClients)
	secured.GET("/clients/:id", h.GetClient)
	secured.PATCH("/clients/:id", h.UpdateClient)
	secured.DELETE("/clients/:id", h.DeleteClient)
	secured.GET("/clients/:id/cases", h.ListClientCases)

	secured.GET("/cases", h.ListCases)
	secured.POST("/cases", h.CreateCase)
	secured.GET("/cases/:id", h.GetCase)
	secured.PATCH("/cases/:id", h.UpdateCase)
	secured.DELETE("/cases/:id", h.DeleteCase)
	secured.POST("/cases/:id/email", h.SendEngagementEmail)

	secured.GET("/companies", h.ListCompanies)
	secured.POST("/companies", h.CreateCompany)
	secured.PATCH("/companies/:id", h.UpdateCompany)
	secured.DELETE("/companies/:id", h.DeleteCompany)

	secured.GET("/caselaw", h.ListCaseLaw)
	secured.POST("/caselaw", h.CreateCaseLaw)
	secured.PATCH("/caselaw/:id", h.UpdateCaseLaw)
	secured.DELETE("/caselaw/:id", h.DeleteCaseLaw)

	secured.POST("/onboarding", h.Onboard)
	secured.POST("/documents/merge", h.MergeDocuments)

	claims := secured.Group("/flight-claims")
	claims.POST("/extract", h.ExtractFlightInfo)
	claims.POST("/facts", h.GenerateFacts)
	claims.POST("/training", h.SaveTrainingExample)
	claims.POST("/petition", h.BuildPetition)
	claims.POST("/petition/document", h.GeneratePetitionDocument)

	secured.POST("/audio/convert", h.ConvertAudio)
	secured.POST("/audio/transcribe", h.TranscribeAudio)
}

// HealthCheck is the liveness endpoint.
func (h *API) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

// Menu lists the external links of the main menu. Unset links are omitted.
func (h *API) Menu(c *gin.Context) {
	links := make(map[string]string, len(config.MenuURLs))
	for k, v := range config.MenuURLs {
		if v != "" {
			links[k] = v
		}
	}
	c.JSON(http.StatusOK, gin.H{"links": links})
}

// Login signs staff in through Supabase Auth.
func (h *API) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if h.services.Auth == nil {
		unavailable(c, msgAuth, "supabase auth not configured")
		return
	}

	session, err := h.services.Auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	observability.Logger(c).Info("staff signed in", "staff", session.Email)
	c.JSON(http.StatusOK, session)
}
