package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brunomcduarte96/deploy-smartlegal/internal/model"
	"github.com/brunomcduarte96/deploy-smartlegal/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *store.SQLStore {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, store.SQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, st.Migrate(ctx))
	t.Cleanup(func() { st.Close() })
	return st
}

func TestImportCompanies(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	n, err := ImportCompanies(ctx, st, strings.NewReader(
		"nome,cnpj,endereco\nAzul,09.296.295/0001-60,\"Av. Marcos Penteado, 939\"\nGOL,07.575.651/0001-59,\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	companies, err := st.ListCompanies(ctx)
	require.NoError(t, err)
	require.Len(t, companies, 2)
	assert.Equal(t, "Azul", companies[0].Nome)
	assert.Equal(t, "Av. Marcos Penteado, 939", companies[0].Endereco)

	n, err = ImportCompanies(ctx, st, strings.NewReader("nome,cnpj\nLATAM,02.012.862/0001-60\nTAP,123\n"))
	assert.Error(t, err)
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.Contains(t, err.Error(), "linha 3")
	assert.Equal(t, 0, n)

	companies, err = st.ListCompanies(ctx)
	require.NoError(t, err)
	assert.Len(t, companies, 2)

	n, err = ImportCompanies(ctx, st, strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestImportCaseLaw(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	n, err := ImportCaseLaw(ctx, st, strings.NewReader("secao,nome,texto\nAtraso,TJRJ 1,Dano presumido.\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	items, err := st.ListCaseLaw(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, model.CaseLaw{ID: items[0].ID, Nome: "TJRJ 1", Texto: "Dano presumido.", Secao: "Atraso", CreatedAt: items[0].CreatedAt}, items[0])

	_, err = ImportCaseLaw(ctx, st, strings.NewReader("nome,texto\nSTJ,sem seção\n"))
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestExportClients(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	var buf bytes.Buffer
	n, err := ExportClients(ctx, st, &buf)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.True(t, strings.HasPrefix(buf.String(), "id,nome_completo,cpf,"))

	_, err = st.InsertClient(ctx, &model.Client{
		NomeCompleto: "Maria Silva", CPF: "123.456.789-00", Email: "maria@example.com",
		Cidade: "Rio de Janeiro", Estado: "RJ", Documentos: model.Documentos{Identidade: "file-1"},
	})
	require.NoError(t, err)

	buf.Reset()
	n, err = ExportClients(ctx, st, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "1,Maria Silva,123.456.789-00,,maria@example.com,"))
	assert.NotContains(t, buf.String(), "file-1")
}

func TestCommands_ImportAndExport(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "db", "smartlegal.db"))
	t.Setenv("LOG_FORMAT", "text")

	companies := filepath.Join(dir, "empresas.csv")
	require.NoError(t, os.WriteFile(companies, []byte("nome,cnpj\nAzul,09.296.295/0001-60\n"), 0o644))

	run := func(args ...string) error {
		cmd := NewRootCmd()
		cmd.SetArgs(append([]string{"--env-file", filepath.Join(dir, "missing.env")}, args...))
		return cmd.ExecuteContext(context.Background())
	}

	require.NoError(t, run("migrate"))
	require.NoError(t, run("import", "companies", companies))
	assert.Error(t, run("import", "companies", filepath.Join(dir, "nope.csv")))

	out := filepath.Join(dir, "clientes.csv")
	require.NoError(t, run("export", "clients", out))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "id,nome_completo"))
}

func TestOAuthConfig(t *testing.T) {
	secret := []byte(`{"installed":{"client_id":"id","client_secret":"s","auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token"}}`)
	cfg, err := oauthConfig(secret, "http://127.0.0.1:8085/")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8085/", cfg.RedirectURL)
	assert.Contains(t, cfg.Scopes, "https://www.googleapis.com/auth/tasks")
	assert.Contains(t, cfg.Scopes, "https://www.googleapis.com/auth/drive")

	_, err = oauthConfig([]byte("{}"), "")
	assert.Error(t, err)
}

func TestCodeHandler(t *testing.T) {
	codes := make(chan string, 1)
	h := codeHandler(codes)

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/?code=abc", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", <-codes)
}
