package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// NotInformed is the literal used for any flight detail the client did not mention.
const NotInformed = "Não informado"

// Client is a row of the clientes table.
type Client struct {
	ID                   int64      `json:"id"`
	NomeCompleto         string     `json:"nome_completo"`
	Nacionalidade        string     `json:"nacionalidade"`
	EstadoCivil          string     `json:"estado_civil"`
	Profissao            string     `json:"profissao"`
	Email                string     `json:"email"`
	Celular              string     `json:"celular"`
	DataNascimento       string     `json:"data_nascimento"`
	RG                   string     `json:"rg"`
	OrgaoEmissor         string     `json:"orgao_emissor"`
	CPF                  string     `json:"cpf"`
	Caso                 string     `json:"caso"`
	AssuntoCaso          string     `json:"assunto_caso"`
	ResponsavelComercial string     `json:"responsavel_comercial"`
	Endereco             string     `json:"endereco"`
	Bairro               string     `json:"bairro"`
	Cidade               string     `json:"cidade"`
	Estado               string     `json:"estado"`
	CEP                  string     `json:"cep"`
	PastaDriveID         string     `json:"pasta_drive_id"`
	Documentos           Documentos `json:"documentos"`
	CreatedAt            string     `json:"created_at"`
}

// FullAddress renders "<endereco>, <bairro>, <cidade>/<estado>".
func (c *Client) FullAddress() string {
	return fmt.Sprintf("%s, %s, %s/%s", c.Endereco, c.Bairro, c.Cidade, c.Estado)
}

// Documentos holds the Drive ids of the documents uploaded at onboarding.
type Documentos struct {
	Identidade string   `json:"identidade,omitempty"`
	Residencia string   `json:"residencia,omitempty"`
	Outros     []string `json:"outros"`
}

// Value stores Documentos as a JSON column.
func (d Documentos) Value() (driver.Value, error) {
	if d.Outros == nil {
		d.Outros = []string{}
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan reads a JSON column written by Value.
func (d *Documentos) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*d = Documentos{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported documentos type %T", src)
	}
	if len(raw) == 0 {
		*d = Documentos{}
		return nil
	}
	return json.Unmarshal(raw, d)
}

// Case is a row of the casos table.
type Case struct {
	ID                   int64  `json:"id"`
	ClienteID            int64  `json:"cliente_id"`
	NomeCliente          string `json:"nome_cliente"`
	Caso                 string `json:"caso"`
	AssuntoCaso          string `json:"assunto_caso"`
	ResponsavelComercial string `json:"responsavel_comercial"`
	ChaveCaso            string `json:"chave_caso"`
	PastaCasoID          string `json:"pasta_caso_id"`
	PastaCasoURL         string `json:"pasta_caso_url"`
	CreatedAt            string `json:"created_at"`
}

// Company is an airline (empresas table).
type Company struct {
	ID       int64  `json:"id" csv:"-"`
	Nome     string `json:"nome" csv:"nome"`
	CNPJ     string `json:"cnpj" csv:"cnpj"`
	Endereco string `json:"endereco" csv:"endereco,omitempty"`
}

// CaseLaw is a jurisprudence citation grouped by secao.
type CaseLaw struct {
	ID        int64  `json:"id" csv:"-"`
	Nome      string `json:"nome" csv:"nome"`
	Texto     string `json:"texto" csv:"texto"`
	Secao     string `json:"secao" csv:"secao"`
	CreatedAt string `json:"created_at" csv:"-"`
}

// TrainingExample pairs a drafting prompt with the narrative accepted by staff.
type TrainingExample struct {
	ID         int64  `json:"id"`
	Caso       string `json:"caso"`
	InputText  string `json:"input_text"`
	OutputText string `json:"output_text"`
	CreatedAt  string `json:"created_at"`
}

// FlightInfo is the structured summary extracted from a client's account of a flight problem.
type FlightInfo struct {
	MotivoVoo             string `json:"motivo_voo"`
	Problema              string `json:"problema"`
	CompromissoPerdido    string `json:"compromisso_perdido"`
	Contexto              string `json:"contexto"`
	MomentoInformacao     string `json:"momento_informacao"`
	TipoVoo               string `json:"tipo_voo"`
	OrigemVoo             string `json:"origem_voo"`
	DestinoVoo            string `json:"destino_voo"`
	Escala                string `json:"escala"`
	LocalProblema         string `json:"local_problema"`
	DataVooInicial        string `json:"data_voo_inicial"`
	HorarioVooInicial     string `json:"horario_voo_inicial"`
	DataVooReal           string `json:"data_voo_real"`
	HorarioVooReal        string `json:"horario_voo_real"`
	TempoAtraso           string `json:"tempo_atraso"`
	SolicitouReacomodacao string `json:"solicitou_reacomodacao"`
	OpcaoReacomodacao     string `json:"opcao_reacomodacao"`
	RecebeuAuxilio        string `json:"recebeu_auxilio"`
	AuxilioRecebido       string `json:"auxilio_recebido"`
	TeveCustos            string `json:"teve_custos"`
	DescricaoCustos       string `json:"descricao_custos"`
	ValorTotalCustos      string `json:"valor_total_custos"`
}

// FillDefaults replaces every empty field with NotInformed.
func (f *FlightInfo) FillDefaults() {
	for _, p := range f.fields() {
		if *p == "" {
			*p = NotInformed
		}
	}
}

func (f *FlightInfo) fields() []*string {
	return []*string{
		&f.MotivoVoo, &f.Problema, &f.CompromissoPerdido, &f.Contexto, &f.MomentoInformacao,
		&f.TipoVoo, &f.OrigemVoo, &f.DestinoVoo, &f.Escala, &f.LocalProblema,
		&f.DataVooInicial, &f.HorarioVooInicial, &f.DataVooReal, &f.HorarioVooReal, &f.TempoAtraso,
		&f.SolicitouReacomodacao, &f.OpcaoReacomodacao, &f.RecebeuAuxilio, &f.AuxilioRecebido,
		&f.TeveCustos, &f.DescricaoCustos, &f.ValorTotalCustos,
	}
}

// FileInfo is the Drive metadata the service needs.
type FileInfo struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	MimeType string   `json:"mimeType"`
	Parents  []string `json:"parents"`
}

// Upload is a file received from a form.
type Upload struct {
	Name    string
	Content []byte
}

// OnboardingStep reports one step of the onboarding pipeline.
type OnboardingStep struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

const (
	StepDone    = "done"
	StepSkipped = "skipped"
	StepFailed  = "failed"
)

// OnboardingResult is returned after a client is onboarded.
type OnboardingResult struct {
	Client       *Client          `json:"client"`
	Case         *Case            `json:"case,omitempty"`
	FolderID     string           `json:"folder_id"`
	ProcuracaoID string           `json:"procuracao_id,omitempty"`
	ContratoID   string           `json:"contrato_id,omitempty"`
	Steps        []OnboardingStep `json:"steps"`
}

// Task is a follow-up item created in Google Tasks.
type Task struct {
	Title   string `json:"title"`
	DueDate string `json:"due_date"`
	Notes   string `json:"notes"`
}

// Petition is the assembled text of an initial petition, one field per section.
type Petition struct {
	Vara                 string `json:"vara"`
	ClientQualification  string `json:"qualificacao_cliente"`
	ActionTitle          string `json:"titulo_acao"`
	CompanyQualification string `json:"qualificacao_empresa"`
	Publications         string `json:"publicacoes"`
	Facts                string `json:"fatos"`
	LegalGroundTitle     string `json:"direito_titulo"`
	LegalGround          string `json:"direito"`
	CaseLaw              string `json:"jurisprudencia"`
	Requests             string `json:"pedidos"`
}
