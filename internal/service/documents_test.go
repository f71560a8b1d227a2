package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/brunomcduarte96/deploy-smartlegal/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	sent []*Mail
	err  error
}

func (m *recordingMailer) Send(_ context.Context, mail *Mail) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, mail)
	return nil
}

type recordingFollowUps struct {
	calls int
	url   string
	err   error
}

func (r *recordingFollowUps) CreateFollowUp(_ context.Context, _ *model.Client, folderURL string) (string, error) {
	r.calls++
	r.url = folderURL
	return "task-9", r.err
}

func seedCase(t *testing.T, folderID string) (*DocumentService, *fakeWorkspace, *recordingMailer, *recordingFollowUps, int64, int64) {
	t.Helper()
	st := newTestStore(t)
	ctx := context.Background()
	client, err := st.InsertClient(ctx, &model.Client{NomeCompleto: "Maria Silva", Email: "maria@example.com"})
	require.NoError(t, err)
	kase, err := st.InsertCase(ctx, &model.Case{ClienteID: client.ID, NomeCliente: client.NomeCompleto, PastaCasoID: folderID})
	require.NoError(t, err)

	ws := newFakeWorkspace()
	mailer := &recordingMailer{}
	followUps := &recordingFollowUps{}
	return NewDocumentService(st, ws, mailer, followUps), ws, mailer, followUps, client.ID, kase.ID
}

func TestSendEngagementEmail(t *testing.T) {
	svc, ws, mailer, followUps, clientID, caseID := seedCase(t, "case-folder")
	ws.caseDocs = &CaseDocuments{
		Procuracao: &model.FileInfo{ID: "p1", Name: "Procuracao - Maria Silva.pdf", MimeType: mimePDF},
		Contrato:   &model.FileInfo{ID: "c1", Name: "Contrato de Honorarios - Maria Silva.pdf", MimeType: mimePDF},
	}

	res, err := svc.SendEngagementEmail(context.Background(), clientID, caseID)
	require.NoError(t, err)
	assert.Equal(t, "maria@example.com", res.To)
	assert.Equal(t, "task-9", res.FollowUpID)
	assert.Equal(t, FolderURL("case-folder"), followUps.url)

	require.Len(t, mailer.sent, 1)
	mail := mailer.sent[0]
	assert.Equal(t, "Procuração e Contrato de Honorários - Smart Legal e Maria Silva", mail.Subject)
	assert.Contains(t, mail.HTML, "Prezada(o) <strong>Maria Silva</strong>")
	require.Len(t, mail.Attachments, 2)
	assert.Equal(t, "Procuracao_Maria Silva.pdf", mail.Attachments[0].Name)
	assert.Equal(t, "Contrato de Honorarios - Maria Silva.pdf", mail.Attachments[1].Name)
	assert.Equal(t, []byte("%PDF-p1"), mail.Attachments[0].Content)
	assert.Equal(t, []string{"p1", "c1"}, ws.downloaded)
}

func TestSendEngagementEmail_FollowUpFailureIsNotFatal(t *testing.T) {
	svc, ws, mailer, followUps, clientID, caseID := seedCase(t, "case-folder")
	ws.caseDocs = &CaseDocuments{Procuracao: &model.FileInfo{ID: "p1"}, Contrato: &model.FileInfo{ID: "c1"}}
	followUps.err = errors.New("tasks down")

	_, err := svc.SendEngagementEmail(context.Background(), clientID, caseID)
	require.NoError(t, err)
	assert.Len(t, mailer.sent, 1)
}

func TestSendEngagementEmail_Errors(t *testing.T) {
	svc, _, mailer, _, clientID, caseID := seedCase(t, "case-folder")
	_, err := svc.SendEngagementEmail(context.Background(), clientID, caseID)
	assert.ErrorIs(t, err, ErrDocumentsNotFound)
	assert.Empty(t, mailer.sent)

	svc, _, _, _, clientID, caseID = seedCase(t, "")
	_, err = svc.SendEngagementEmail(context.Background(), clientID, caseID)
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = NewDocumentService(newTestStore(t), nil, nil, nil).SendEngagementEmail(context.Background(), 1, 1)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestBuildMessage(t *testing.T) {
	msg := buildMessage("contato@smartlegabr.com", &Mail{
		To:      "maria@example.com",
		Subject: EngagementSubject("Maria Silva"),
		HTML:    EngagementHTML("Maria Silva"),
		Attachments: []Attachment{
			{Name: "Procuracao_Maria Silva.pdf", Content: []byte("%PDF-1")},
			{Name: "Contrato de Honorarios - Maria/Silva.pdf", Content: []byte("%PDF-2")},
		},
	})

	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	// unfold long header lines
	out := strings.ReplaceAll(buf.String(), "\r\n ", " ")

	assert.Contains(t, out, "To: maria@example.com")
	assert.Contains(t, out, "From: contato@smartlegabr.com")
	assert.Contains(t, out, `filename="Procuracao_Maria Silva.pdf"`)
	assert.Contains(t, out, `filename="Contrato de Honorarios - Maria-Silva.pdf"`)
	assert.Equal(t, 2, strings.Count(out, "Content-Disposition: attachment"))
}
