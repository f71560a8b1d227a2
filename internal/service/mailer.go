package service

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/brunomcduarte96/deploy-smartlegal/internal/config"
	"gopkg.in/gomail.v2"
)

// Attachment is a file attached to an outgoing e-mail.
type Attachment struct {
	Name    string
	Content []byte
}

// Mail is an outgoing HTML e-mail.
type Mail struct {
	To          string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Mailer sends e-mail.
type Mailer interface {
	Send(ctx context.Context, m *Mail) error
}

// SMTPMailer sends through the configured SMTP server, upgrading with STARTTLS.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer reads EMAIL_* settings. The password comes from the environment or Secret Manager.
func NewSMTPMailer(ctx context.Context) (*SMTPMailer, error) {
	if config.SMTP.Host == "" {
		return nil, fmt.Errorf("EMAIL_HOST not set")
	}
	password := config.SMTP.Password
	if password == "" {
		var err error
		password, err = LoadSecret(ctx, config.SecretSMTPPassword)
		if err != nil {
			return nil, fmt.Errorf("failed to load SMTP password: %w", err)
		}
	}

	d := gomail.NewDialer(config.SMTP.Host, config.SMTP.Port, config.SMTP.User, password)
	d.TLSConfig = &tls.Config{ServerName: config.SMTP.Host}

	from := config.SMTP.From
	if from == "" {
		from = config.SMTP.User
	}
	return &SMTPMailer{dialer: d, from: from}, nil
}

// Send dials, authenticates and sends m. gomail has no context support, so ctx is only
// checked before dialing.
func (s *SMTPMailer) Send(ctx context.Context, m *Mail) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(buildMessage(s.from, m)); err != nil {
		return fmt.Errorf("failed to send e-mail: %w", err)
	}
	log.Printf("E-mail sent to %s: %s (%d attachments)", m.To, m.Subject, len(m.Attachments))
	return nil
}

func buildMessage(from string, m *Mail) *gomail.Message {
	msg := gomail.NewMessage(gomail.SetCharset("UTF-8"))
	msg.SetHeader("From", from)
	msg.SetHeader("To", m.To)
	msg.SetHeader("Subject", m.Subject)
	msg.SetBody("text/html", m.HTML)

	for _, a := range m.Attachments {
		content := a.Content
		// names may contain characters gomail would treat as a path
		name := strings.ReplaceAll(a.Name, "/", "-")
		msg.Attach(name,
			gomail.Rename(name),
			gomail.SetHeader(map[string][]string{"Content-Type": {mimePDF}}),
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(content)
				return err
			}),
		)
	}
	return msg
}

// EngagementSubject is the subject of the engagement e-mail.
func EngagementSubject(nome string) string {
	return fmt.Sprintf("Procuração e Contrato de Honorários - Smart Legal e %s", nome)
}

// EngagementHTML renders the engagement e-mail body.
func EngagementHTML(nome string) string {
	return strings.ReplaceAll(engagementTemplate, "{{nome}}", nome)
}

const engagementTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin: 0; padding: 0; font-family: Arial, sans-serif; color: #333333; line-height: 1.6;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px; background-color: #ffffff;">
        <div style="text-align: center; margin-bottom: 20px;">
            <h2 style="color: #2c3e50; margin-bottom: 5px;">Smart Legal</h2>
            <div style="height: 3px; background-color: #3498db; width: 100px; margin: 0 auto;"></div>
        </div>

        <div style="margin-bottom: 30px;">
            <p style="margin-bottom: 15px;">Prezada(o) <strong>{{nome}}</strong>,</p>

            <p style="margin-bottom: 15px;">Encaminhamos em anexo dois documentos importantes para o início do seu atendimento:</p>

            <ul style="margin-bottom: 20px; padding-left: 20px;">
                <li style="margin-bottom: 10px;"><strong>Procuração</strong>, que deverá ser assinada por meio da plataforma <a href="https://www.gov.br/pt-br/servicos/assinatura-eletronica" style="color: #3498db; text-decoration: none; font-weight: bold;">Gov.br</a>;</li>
                <li style="margin-bottom: 10px;"><strong>Contrato de Prestação de Serviços e Fixação de Honorários</strong>.</li>
            </ul>

            <div style="background-color: #f8f9fa; border-left: 4px solid #e74c3c; padding: 15px; margin-bottom: 20px;">
                <p style="margin: 0; color: #e74c3c;"><strong>🔒 Atenção:</strong> somente após o recebimento da procuração assinada poderemos dar andamento ao seu caso.</p>
            </div>

            <p style="margin-bottom: 15px;">Solicitamos, por gentileza, que confirme o seu de acordo em relação ao contrato, e nos retorne com a procuração assinada.</p>

            <p style="margin-bottom: 15px;">Permanecemos à disposição para qualquer dúvida que possa surgir.</p>
        </div>

        <div style="margin-top: 30px; padding-top: 20px; border-top: 1px solid #eeeeee;">
            <p style="margin: 0;">Atenciosamente,</p>
            <p style="margin: 0; font-weight: bold; color: #2c3e50;">Equipe Smart Legal</p>
        </div>
    </div>
</body>
</html>
`
