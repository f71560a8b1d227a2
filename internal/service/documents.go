package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/brunomcduarte96/deploy-smartlegal/internal/config"
	"github.com/brunomcduarte96/deploy-smartlegal/internal/model"
	"github.com/brunomcduarte96/deploy-smartlegal/internal/store"
)

// ErrDocumentsNotFound means the case folder lacks the procuração or contract PDF.
var ErrDocumentsNotFound = errors.New("Documentos não encontrados na pasta do caso")

// FollowUpCreator creates the reminder task after the engagement e-mail.
type FollowUpCreator interface {
	CreateFollowUp(ctx context.Context, client *model.Client, folderURL string) (string, error)
}

// EmailResult is returned after the engagement e-mail is sent.
type EmailResult struct {
	To         string `json:"to"`
	Subject    string `json:"subject"`
	FollowUpID string `json:"follow_up_task_id,omitempty"`
}

// DocumentService sends the engagement documents of a case to its client.
type DocumentService struct {
	store     store.Store
	workspace Workspace
	mailer    Mailer
	followUps FollowUpCreator
}

// NewDocumentService creates a DocumentService. followUps may be nil.
func NewDocumentService(st store.Store, ws Workspace, mailer Mailer, followUps FollowUpCreator) *DocumentService {
	return &DocumentService{store: st, workspace: ws, mailer: mailer, followUps: followUps}
}

// SendEngagementEmail e-mails the procuração and fee contract PDFs of caseID to clientID.
func (s *DocumentService) SendEngagementEmail(ctx context.Context, clientID, caseID int64) (*EmailResult, error) {
	if s.workspace == nil || s.mailer == nil {
		return nil, fmt.Errorf("e-mail delivery: %w", ErrNotConfigured)
	}

	client, err := s.store.GetClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load client: %w", err)
	}
	kase, err := s.store.GetCase(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load case: %w", err)
	}
	if kase.ClienteID != client.ID {
		return nil, model.Kind(model.ErrValidation, fmt.Errorf("caso %d não pertence ao cliente %d", caseID, clientID))
	}
	if kase.PastaCasoID == "" {
		return nil, model.Kind(model.ErrValidation, fmt.Errorf("ID da pasta do caso não encontrado"))
	}

	docs, err := s.workspace.FindCaseDocuments(ctx, kase.PastaCasoID)
	if err != nil {
		return nil, err
	}
	if docs.Procuracao == nil || docs.Contrato == nil {
		return nil, ErrDocumentsNotFound
	}

	procuracao, err := s.workspace.DownloadFile(ctx, docs.Procuracao.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to download procuração: %w", err)
	}
	contrato, err := s.workspace.DownloadFile(ctx, docs.Contrato.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to download contrato: %w", err)
	}

	mail := &Mail{
		To:      client.Email,
		Subject: EngagementSubject(client.NomeCompleto),
		HTML:    EngagementHTML(client.NomeCompleto),
		Attachments: []Attachment{
			{Name: fmt.Sprintf("Procuracao_%s.pdf", client.NomeCompleto), Content: procuracao},
			{Name: fmt.Sprintf("Contrato de Honorarios - %s.pdf", client.NomeCompleto), Content: contrato},
		},
	}
	if err := s.mailer.Send(ctx, mail); err != nil {
		return nil, err
	}

	result := &EmailResult{To: mail.To, Subject: mail.Subject}
	if s.followUps != nil && config.EnableFollowUpTasks {
		folderURL := kase.PastaCasoURL
		if folderURL == "" {
			folderURL = FolderURL(kase.PastaCasoID)
		}
		id, err := s.followUps.CreateFollowUp(ctx, client, folderURL)
		if err != nil {
			// the e-mail already went out
			log.Printf("Warning: failed to create follow-up task for %s: %v", client.NomeCompleto, err)
		}
		result.FollowUpID = id
	}
	return result, nil
}
