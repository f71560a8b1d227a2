package service

import (
	"context"
	"errors"
	"log"

	"github.com/brunomcduarte96/deploy-smartlegal/internal/config"
	"github.com/brunomcduarte96/deploy-smartlegal/internal/store"
)

// ErrNotConfigured means an optional client needed by the operation is disabled.
var ErrNotConfigured = errors.New("serviço não configurado")

// Services groups every service used by the HTTP handlers. Optional clients are nil
// when their credentials are missing.
type Services struct {
	Store           store.Store
	AIRouter        *AIRouter
	PDFProcessor    *PDFProcessor
	DriveClient     *DriveClient
	TasksClient     *TasksClient
	DiscordNotifier *DiscordNotifier
	Mailer          Mailer
	Auth            *SupabaseAuth
	Onboarding      *OnboardingService
	Documents       *DocumentService
	Petitions       *PetitionBuilder
	Firm            config.FirmProfile
}

// NewServices initializes every service. Only the store is mandatory; remote clients that
// fail to initialize are logged and left disabled.
func NewServices(ctx context.Context, st store.Store) (*Services, error) {
	firm, err := config.LoadFirmProfile(config.FirmProfilePath)
	if err != nil {
		return nil, err
	}

	// AIRouter (optional)
	aiRouter, err := NewAIRouter(ctx, st)
	if err != nil {
		log.Printf("Warning: AIRouter initialization failed: %v", err)
		aiRouter = nil
	}

	// DriveClient (optional)
	var workspace Workspace
	driveClient, err := NewDriveClient(ctx)
	if err != nil {
		log.Printf("Warning: DriveClient initialization failed: %v", err)
		driveClient = nil
	} else {
		workspace = driveClient
	}

	// TasksClient (optional)
	var followUps FollowUpCreator
	tasksClient, err := NewTasksClient(ctx)
	if err != nil {
		log.Printf("Warning: TasksClient initialization failed: %v", err)
		tasksClient = nil
	} else {
		followUps = tasksClient
	}

	// Mailer (optional)
	var mailer Mailer
	smtpMailer, err := NewSMTPMailer(ctx)
	if err != nil {
		log.Printf("Warning: Mailer initialization failed: %v", err)
	} else {
		mailer = smtpMailer
	}

	var office OfficeConverter
	if driveClient != nil {
		office = driveClient
	}
	pdfProcessor := NewPDFProcessor(office)
	notifier := NewDiscordNotifier(config.DiscordWebhookURL)

	return &Services{
		Store:           st,
		AIRouter:        aiRouter,
		PDFProcessor:    pdfProcessor,
		DriveClient:     driveClient,
		TasksClient:     tasksClient,
		DiscordNotifier: notifier,
		Mailer:          mailer,
		Auth:            NewSupabaseAuth(config.SupabaseURL, config.SupabaseKey),
		Onboarding:      NewOnboardingService(st, workspace, pdfProcessor, notifier),
		Documents:       NewDocumentService(st, workspace, mailer, followUps),
		Petitions:       NewPetitionBuilder(firm, workspace),
		Firm:            firm,
	}, nil
}

// Close releases remote clients.
func (s *Services) Close() error {
	if s.AIRouter != nil {
		if err := s.AIRouter.Close(); err != nil {
			log.Printf("Warning: failed to close AIRouter: %v", err)
		}
	}
	return s.Store.Close()
}
