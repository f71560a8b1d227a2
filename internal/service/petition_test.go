package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/brunomcduarte96/deploy-smartlegal/internal/config"
	"github.com/brunomcduarte96/deploy-smartlegal/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPetitionBuilder(ws Workspace) *PetitionBuilder {
	b := NewPetitionBuilder(config.DefaultFirmProfile(), ws)
	b.now = func() time.Time { return fixedNow }
	return b
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Maria Da Silva", TitleCase("  maria   DA silva "))
	assert.Equal(t, "Érica Ângela", TitleCase("érica ÂNGELA"))
	assert.Equal(t, "", TitleCase(""))
}

func TestClientQualification(t *testing.T) {
	c := &model.Client{
		NomeCompleto: "maria silva", EstadoCivil: "solteira", Profissao: "engenheira",
		RG: "12345", OrgaoEmissor: "DETRAN", CPF: "123.456.789-00",
		Endereco: "Rua A, 1", Bairro: "Centro", Cidade: "Rio de Janeiro", Estado: "RJ", CEP: "20000-000",
	}
	got := testPetitionBuilder(nil).ClientQualification(c, "EXMO. SR. DR. JUIZ DE DIREITO DA 1ª VARA CÍVEL")

	assert.True(t, strings.HasPrefix(got, "EXMO. SR. DR. JUIZ DE DIREITO DA 1ª VARA CÍVEL\n\nMaria Silva, brasileiro(a), solteira, engenheira, "))
	assert.Contains(t, got, "portador da carteira de identidade nº 12345 expedida pelo DETRAN, inscrito no CPF nº 123.456.789-00")
	assert.Contains(t, got, "residente e domiciliado na Rua A, 1, Centro, Rio de Janeiro/RJ, CEP: 20000-000")
	assert.Contains(t, got, "endereço eletrônico contato@smartlegabr.com")
	assert.Contains(t, got, "Rua Siqueira Campos, nº 243")
	assert.True(t, strings.HasSuffix(got, "vem, respeitosamente propor a presente"))
}

func TestCompanyQualification(t *testing.T) {
	got := testPetitionBuilder(nil).CompanyQualification(&model.Company{Nome: "GOL LINHAS AÉREAS S.A.", CNPJ: "07.575.651/0001-59", Endereco: "Praça Senador Salgado Filho, s/n"})
	assert.Equal(t, "em face de GOL LINHAS AÉREAS S.A., pessoa jurídica de direito privado, inscrita no CNPJ sob o nº 07.575.651/0001-59, "+
		"estabelecida à Praça Senador Salgado Filho, s/n, pelos fatos e fundamentos a seguir expostos.", got)
}

func TestBuildPetition(t *testing.T) {
	b := testPetitionBuilder(nil)
	client := &model.Client{NomeCompleto: "Maria Silva"}
	company := &model.Company{Nome: "Azul", CNPJ: "09.296.295/0001-60"}
	caseLaw := []model.CaseLaw{
		{Nome: "TJRJ 0001", Texto: "Atraso superior a 4 horas.", Secao: "Atraso"},
		{Nome: "TJRJ 0002", Texto: "Dano presumido.", Secao: "Atraso"},
		{Nome: "STJ 1", Texto: "Cancelamento sem aviso.", Secao: "Cancelamento"},
	}

	p, err := b.BuildPetition(client, company, " 1ª Vara Cível ", "  Os fatos.  ", caseLaw, nil)
	require.NoError(t, err)
	assert.Equal(t, "1ª Vara Cível", p.Vara)
	assert.Equal(t, "AÇÃO INDENIZATÓRIA POR DANOS MORAIS E MATERIAIS", p.ActionTitle)
	assert.Equal(t, "Os fatos.", p.Facts)
	assert.Equal(t, "ATRASO\n\nAtraso superior a 4 horas. (TJRJ 0001)\n\nDano presumido. (TJRJ 0002)\n\nCANCELAMENTO\n\nCancelamento sem aviso. (STJ 1)", p.CaseLaw)
	assert.True(t, strings.HasPrefix(p.Requests, "Diante do exposto, requer:\n\na) a citação da Ré"))
	assert.Contains(t, p.Requests, "d) a condenação da Ré ao pagamento de indenização por danos materiais.")
	assert.Contains(t, p.LegalGroundTitle, "RESOLUÇÃO Nº 400/2016 DA ANAC")

	text := RenderPetition(p)
	assert.Less(t, strings.Index(text, "DOS FATOS"), strings.Index(text, "DO DIREITO"))
	assert.Less(t, strings.Index(text, "DA JURISPRUDÊNCIA"), strings.Index(text, "DOS PEDIDOS"))

	p, err = b.BuildPetition(client, company, "vara", "", nil, []string{"pedido único"})
	require.NoError(t, err)
	assert.Equal(t, "Diante do exposto, requer:\n\na) pedido único", p.Requests)
	assert.NotContains(t, RenderPetition(p), "DA JURISPRUDÊNCIA")

	_, err = b.BuildPetition(client, company, "  ", "", nil, nil)
	assert.ErrorIs(t, err, model.ErrValidation)
	_, err = b.BuildPetition(nil, company, "vara", "", nil, nil)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestGeneratePetitionDocument(t *testing.T) {
	prev := config.PeticaoTemplateID
	config.PeticaoTemplateID = "tpl-peticao"
	t.Cleanup(func() { config.PeticaoTemplateID = prev })

	ws := newFakeWorkspace()
	b := testPetitionBuilder(ws)
	p, err := b.BuildPetition(&model.Client{NomeCompleto: "Maria"}, &model.Company{Nome: "Azul"}, "vara", "fatos", nil, nil)
	require.NoError(t, err)

	doc, err := b.GeneratePetitionDocument(context.Background(), p, &model.Case{ID: 7, NomeCliente: "Maria", PastaCasoID: "case-f"})
	require.NoError(t, err)
	assert.Equal(t, "Peticao Inicial - Maria - 20240305_140405.pdf", doc.Name)

	require.Len(t, ws.fills, 1)
	assert.Equal(t, "tpl-peticao", ws.fills[0].TemplateID)
	assert.Equal(t, "case-f", ws.fills[0].FolderID)
	assert.Equal(t, "fatos", ws.fills[0].Fields["fatos"])
	assert.Equal(t, "05 de março de 2024", ws.fills[0].Fields["data_extenso"])
	require.Len(t, ws.uploads, 1)
	assert.Equal(t, "case-f", ws.uploads[0].FolderID)

	_, err = b.GeneratePetitionDocument(context.Background(), p, &model.Case{})
	assert.ErrorIs(t, err, model.ErrValidation)
}
