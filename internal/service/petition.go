package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/brunomcduarte96/deploy-smartlegal/internal/config"
	"github.com/brunomcduarte96/deploy-smartlegal/internal/dates"
	"github.com/brunomcduarte96/deploy-smartlegal/internal/model"
)

// PetitionBuilder assembles initial petitions for flight claims from firm, client and airline data.
type PetitionBuilder struct {
	firm      config.FirmProfile
	workspace Workspace
	now       func() time.Time
}

// NewPetitionBuilder creates a PetitionBuilder. ws may be nil when only text is needed.
func NewPetitionBuilder(firm config.FirmProfile, ws Workspace) *PetitionBuilder {
	return &PetitionBuilder{firm: firm, workspace: ws, now: dates.Now}
}

// TitleCase capitalizes the first letter of every word and collapses whitespace.
func TitleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// ClientQualification renders the court line followed by the client's qualification paragraph.
func (b *PetitionBuilder) ClientQualification(c *model.Client, vara string) string {
	return fmt.Sprintf("%s\n\n"+
		"%s, %s, %s, %s, portador da carteira de identidade nº %s expedida pelo %s, "+
		"inscrito no CPF nº %s, residente e domiciliado na %s, CEP: %s, "+
		"endereço eletrônico %s, por meio de seus advogados que a esta subscrevem, "+
		"com escritório na %s, onde recebem intimações "+
		"com fulcro nos arts. 5º, inciso V da Constituição Federal c/c arts. 186 e 927 do Código Civil, "+
		"vem, respeitosamente propor a presente",
		strings.TrimSpace(vara),
		TitleCase(c.NomeCompleto), orDefault(c.Nacionalidade, "brasileiro(a)"), c.EstadoCivil, c.Profissao,
		c.RG, c.OrgaoEmissor, c.CPF, c.FullAddress(), c.CEP,
		b.firm.ContactEmail, b.firm.OfficeAddress,
	)
}

// CompanyQualification renders the defendant paragraph.
func (b *PetitionBuilder) CompanyQualification(co *model.Company) string {
	return fmt.Sprintf("em face de %s, pessoa jurídica de direito privado, "+
		"inscrita no CNPJ sob o nº %s, estabelecida à %s, "+
		"pelos fatos e fundamentos a seguir expostos.",
		co.Nome, co.CNPJ, orDefault(co.Endereco, model.NotInformed))
}

// CaseLawText groups the selected citations by secao, keeping their order.
func CaseLawText(items []model.CaseLaw) string {
	var sb strings.Builder
	lastSecao := ""
	for i, cl := range items {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		if cl.Secao != "" && cl.Secao != lastSecao {
			sb.WriteString(strings.ToUpper(cl.Secao))
			sb.WriteString("\n\n")
			lastSecao = cl.Secao
		}
		sb.WriteString(strings.TrimSpace(cl.Texto))
		if cl.Nome != "" {
			fmt.Fprintf(&sb, " (%s)", cl.Nome)
		}
	}
	return sb.String()
}

// RequestsText numbers the requests as a), b), ...
func RequestsText(requests []string) string {
	lines := make([]string, 0, len(requests)+1)
	lines = append(lines, "Diante do exposto, requer:")
	for i, r := range requests {
		lines = append(lines, fmt.Sprintf("%c) %s", 'a'+rune(i%26), strings.TrimSpace(r)))
	}
	return strings.Join(lines, "\n\n")
}

// BuildPetition assembles every section of the petition. Empty requests use the firm defaults.
func (b *PetitionBuilder) BuildPetition(c *model.Client, co *model.Company, vara, facts string, caseLaw []model.CaseLaw, requests []string) (*model.Petition, error) {
	if c == nil || co == nil {
		return nil, model.Kind(model.ErrValidation, fmt.Errorf("cliente e empresa são obrigatórios"))
	}
	if strings.TrimSpace(vara) == "" {
		return nil, model.Kind(model.ErrValidation, fmt.Errorf("vara cível é obrigatória"))
	}
	if len(requests) == 0 {
		requests = b.firm.DefaultRequests
	}

	return &model.Petition{
		Vara:                 strings.TrimSpace(vara),
		ClientQualification:  b.ClientQualification(c, vara),
		ActionTitle:          b.firm.ActionTitle,
		CompanyQualification: b.CompanyQualification(co),
		Publications:         b.firm.PublicationsText,
		Facts:                strings.TrimSpace(facts),
		LegalGroundTitle:     b.firm.LegalGroundTitle,
		LegalGround:          b.firm.LegalGroundText,
		CaseLaw:              CaseLawText(caseLaw),
		Requests:             RequestsText(requests),
	}, nil
}

// RenderPetition joins the sections in reading order as plain text.
func RenderPetition(p *model.Petition) string {
	sections := []string{
		p.ClientQualification,
		p.ActionTitle,
		p.CompanyQualification,
		"DAS PUBLICAÇÕES\n\n" + p.Publications,
		"DOS FATOS\n\n" + p.Facts,
		"DO DIREITO\n\n" + p.LegalGroundTitle + "\n\n" + p.LegalGround,
	}
	if p.CaseLaw != "" {
		sections = append(sections, "DA JURISPRUDÊNCIA\n\n"+p.CaseLaw)
	}
	sections = append(sections, "DOS PEDIDOS\n\n"+p.Requests)
	return strings.Join(sections, "\n\n")
}

// PetitionFields are the {placeholders} of the petition template.
func (b *PetitionBuilder) PetitionFields(p *model.Petition) map[string]string {
	return map[string]string{
		"vara":                 p.Vara,
		"qualificacao_cliente": p.ClientQualification,
		"titulo_acao":          p.ActionTitle,
		"qualificacao_empresa": p.CompanyQualification,
		"publicacoes":          p.Publications,
		"fatos":                p.Facts,
		"direito_titulo":       p.LegalGroundTitle,
		"direito":              p.LegalGround,
		"jurisprudencia":       p.CaseLaw,
		"pedidos":              p.Requests,
		"advogado":             b.firm.LawyerName,
		"oab":                  b.firm.LawyerOAB,
		"data_extenso":         dates.PorExtenso(b.now()),
	}
}

// PetitionDocument identifies a generated petition.
type PetitionDocument struct {
	DocID  string `json:"doc_id"`
	PDFID  string `json:"pdf_id"`
	Name   string `json:"name"`
	Folder string `json:"folder_url"`
}

// GeneratePetitionDocument fills the petition template into the case folder and uploads its PDF.
func (b *PetitionBuilder) GeneratePetitionDocument(ctx context.Context, p *model.Petition, kase *model.Case) (*PetitionDocument, error) {
	if b.workspace == nil {
		return nil, model.Kind(model.ErrDrive, fmt.Errorf("google workspace not configured"))
	}
	if kase == nil || kase.PastaCasoID == "" {
		return nil, model.Kind(model.ErrValidation, fmt.Errorf("ID da pasta do caso não encontrado"))
	}

	name := fmt.Sprintf("Peticao Inicial - %s - %s", kase.NomeCliente, dates.Stamp(b.now()))
	docID, err := b.workspace.FillDocumentTemplate(ctx, config.PeticaoTemplateID, b.PetitionFields(p), name, kase.PastaCasoID)
	if err != nil {
		return nil, err
	}
	if missing, err := b.workspace.UnfilledPlaceholders(ctx, docID); err == nil && len(missing) > 0 {
		log.Printf("Warning: petition %s still has placeholders: %s", docID, strings.Join(missing, ", "))
	}

	pdf, err := b.workspace.ExportPDF(ctx, docID)
	if err != nil {
		return nil, err
	}
	pdfID, err := b.workspace.UploadFile(ctx, name+".pdf", pdf, mimePDF, kase.PastaCasoID)
	if err != nil {
		return nil, err
	}

	log.Printf("Petition generated for case %d: %s", kase.ID, pdfID)
	return &PetitionDocument{DocID: docID, PDFID: pdfID, Name: name + ".pdf", Folder: FolderURL(kase.PastaCasoID)}, nil
}
