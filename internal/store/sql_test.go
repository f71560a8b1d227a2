package store

import (
	"context"
	"errors"
	"testing"

	"github.com/brunomcduarte96/deploy-smartlegal/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	ctx := context.Background()
	s, err := Open(ctx, SQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleClient(name string) *model.Client {
	return &model.Client{
		NomeCompleto: name,
		Email:        "maria@example.com",
		Celular:      "(21) 99999-0000",
		CPF:          "123.456.789-00",
		Caso:         "Aéreo",
		AssuntoCaso:  "Atraso de Voo",
		Estado:       "RJ",
		Documentos:   model.Documentos{Identidade: "doc-1", Outros: []string{"o1"}},
	}
}

func TestRebind(t *testing.T) {
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", Postgres.Rebind("SELECT * FROM t WHERE a = ? AND b = ?"))
	assert.Equal(t, "SELECT ?", SQLite.Rebind("SELECT ?"))
}

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect("Supabase")
	require.NoError(t, err)
	assert.Equal(t, Postgres, d)

	d, err = ParseDialect("sqlite3")
	require.NoError(t, err)
	assert.Equal(t, SQLite, d)

	_, err = ParseDialect("mysql")
	assert.Error(t, err)
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Migrate(context.Background()))
}

func TestClientCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.InsertClient(ctx, sampleClient("Maria Silva"))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.NotEmpty(t, created.CreatedAt)
	assert.Equal(t, "doc-1", created.Documentos.Identidade)
	assert.Equal(t, []string{"o1"}, created.Documentos.Outros)

	updated, err := s.UpdateClient(ctx, created.ID, map[string]any{"profissao": "Engenheira", "cep": "22031-071"})
	require.NoError(t, err)
	assert.Equal(t, "Engenheira", updated.Profissao)
	assert.Equal(t, "22031-071", updated.CEP)
	assert.Equal(t, "Maria Silva", updated.NomeCompleto)

	_, err = s.UpdateClient(ctx, created.ID, map[string]any{"id": 5})
	assert.True(t, errors.Is(err, model.ErrValidation))

	_, err = s.UpdateClient(ctx, 9999, map[string]any{"profissao": "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.DeleteClient(ctx, created.ID))
	_, err = s.GetClient(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteClient(ctx, created.ID), ErrNotFound)
}

func TestSearchClients(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for name, email := range map[string]string{
		"Maria Silva":   "msilva@example.com",
		"João Souza":    "joao@example.com",
		"Mariana Costa": "mcosta@example.com",
	} {
		c := sampleClient(name)
		c.Email = email
		_, err := s.InsertClient(ctx, c)
		require.NoError(t, err)
	}
	other := sampleClient("Pedro Lima")
	other.Email = "pedro@empresa.com"
	other.CPF = "987.654.321-00"
	_, err := s.InsertClient(ctx, other)
	require.NoError(t, err)

	got, err := s.SearchClients(ctx, "MARIA", 0)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.SearchClients(ctx, "empresa.com", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Pedro Lima", got[0].NomeCompleto)

	got, err = s.SearchClients(ctx, "987.654", 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = s.SearchClients(ctx, "", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.SearchClientsByPartialName(ctx, "mari", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Maria Silva", got[0].NomeCompleto)

	c, err := s.GetClientByName(ctx, "Pedro Lima")
	require.NoError(t, err)
	assert.Equal(t, "pedro@empresa.com", c.Email)

	_, err = s.GetClientByName(ctx, "Pedro")
	assert.ErrorIs(t, err, ErrNotFound)

	// wildcards in the term are literal
	for _, term := range []string{"_", "%", `\`} {
		got, err = s.SearchClients(ctx, term, 10)
		require.NoError(t, err)
		assert.Empty(t, got, term)
		got, err = s.SearchClientsByPartialName(ctx, term, 10)
		require.NoError(t, err)
		assert.Empty(t, got, term)
	}
	under := sampleClient("Ana_Paula")
	under.Email = "ana_paula@example.com"
	_, err = s.InsertClient(ctx, under)
	require.NoError(t, err)
	got, err = s.SearchClients(ctx, "a_p", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Ana_Paula", got[0].NomeCompleto)
}

func TestDeleteClientWithCasesIsRefused(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	client, err := s.InsertClient(ctx, sampleClient("Maria Silva"))
	require.NoError(t, err)

	kase, err := s.InsertCase(ctx, &model.Case{ClienteID: client.ID, NomeCliente: client.NomeCompleto, ChaveCaso: "k1"})
	require.NoError(t, err)

	assert.ErrorIs(t, s.DeleteClient(ctx, client.ID), ErrClientHasCases)

	cases, err := s.ListClientCases(ctx, client.ID)
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, "k1", cases[0].ChaveCaso)

	require.NoError(t, s.DeleteCase(ctx, kase.ID))
	require.NoError(t, s.DeleteClient(ctx, client.ID))
}

func TestCaseUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	client, err := s.InsertClient(ctx, sampleClient("Maria Silva"))
	require.NoError(t, err)
	kase, err := s.InsertCase(ctx, &model.Case{ClienteID: client.ID, AssuntoCaso: "Atraso de Voo"})
	require.NoError(t, err)

	updated, err := s.UpdateCase(ctx, kase.ID, map[string]any{"pasta_caso_url": "https://drive/x", "cliente_id": float64(client.ID)})
	require.NoError(t, err)
	assert.Equal(t, "https://drive/x", updated.PastaCasoURL)

	_, err = s.UpdateCase(ctx, kase.ID, map[string]any{"cliente_id": 1.5})
	assert.ErrorIs(t, err, model.ErrValidation)

	all, err := s.ListCases(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCompanyCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c, err := s.InsertCompany(ctx, &model.Company{Nome: "Gol", CNPJ: "07.575.651/0001-59"})
	require.NoError(t, err)
	_, err = s.InsertCompany(ctx, &model.Company{Nome: "Azul", CNPJ: "09.296.295/0001-60", Endereco: "Barueri"})
	require.NoError(t, err)

	list, err := s.ListCompanies(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Azul", list[0].Nome)

	updated, err := s.UpdateCompany(ctx, c.ID, map[string]any{"endereco": "São Paulo"})
	require.NoError(t, err)
	assert.Equal(t, "São Paulo", updated.Endereco)

	require.NoError(t, s.DeleteCompany(ctx, c.ID))
	assert.ErrorIs(t, s.DeleteCompany(ctx, c.ID), ErrNotFound)
}

func TestCaseLawOrderedBySecao(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, cl := range []model.CaseLaw{
		{Nome: "c", Texto: "t", Secao: "Dano moral"},
		{Nome: "a", Texto: "t", Secao: "Atraso"},
		{Nome: "b", Texto: "t", Secao: "Cancelamento"},
	} {
		cl := cl
		_, err := s.InsertCaseLaw(ctx, &cl)
		require.NoError(t, err)
	}

	list, err := s.ListCaseLaw(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"Atraso", "Cancelamento", "Dano moral"}, []string{list[0].Secao, list[1].Secao, list[2].Secao})

	updated, err := s.UpdateCaseLaw(ctx, list[0].ID, map[string]any{"texto": "novo"})
	require.NoError(t, err)
	assert.Equal(t, "novo", updated.Texto)
}

func TestTrainingExamplesNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, out := range []string{"first", "second", "third"} {
		_, err := s.InsertTrainingExample(ctx, &model.TrainingExample{Caso: "Atraso de Voo", InputText: "in", OutputText: out})
		require.NoError(t, err)
	}
	_, err := s.InsertTrainingExample(ctx, &model.TrainingExample{Caso: "Overbooking", InputText: "in", OutputText: "other"})
	require.NoError(t, err)

	list, err := s.ListTrainingExamples(ctx, "Atraso de Voo", 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "third", list[0].OutputText)
	assert.Equal(t, "second", list[1].OutputText)
}
