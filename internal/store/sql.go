package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/brunomcduarte96/deploy-smartlegal/internal/dates"
	"github.com/brunomcduarte96/deploy-smartlegal/internal/model"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// SQLStore implements Store over database/sql for Postgres (Supabase) and SQLite.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

var _ Store = (*SQLStore)(nil)

// Open connects to the database. For SQLite, dsn is a file path or ":memory:".
func Open(ctx context.Context, dialect Dialect, dsn string) (*SQLStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("database dsn is empty for %s", dialect)
	}
	if dialect == SQLite && !strings.Contains(dsn, "_pragma") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
	}
	if dialect == SQLite {
		// a single connection keeps ":memory:" databases shared and serializes writers
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetConnMaxIdleTime(5 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, model.Kind(model.ErrDatabase, fmt.Errorf("failed to connect to %s database: %w", dialect, err))
	}

	log.Printf("Database connected (%s)", dialect)
	return &SQLStore{db: db, dialect: dialect}, nil
}

// Close closes the underlying pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) Dialect() Dialect { return s.dialect }

// dbErr tags err as a database failure.
func dbErr(format string, err error) error {
	if err == nil {
		return nil
	}
	return model.Kind(model.ErrDatabase, fmt.Errorf(format+": %w", err))
}

type rowScanner interface {
	Scan(dest ...any) error
}

// text scans nullable text and timestamp columns into a string.
type text string

func (t *text) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = ""
	case string:
		*t = text(v)
	case []byte:
		*t = text(v)
	case time.Time:
		*t = text(dates.ISO(v))
	default:
		*t = text(fmt.Sprint(v))
	}
	return nil
}

// column kinds accepted in partial updates
type colKind int

const (
	colText colKind = iota
	colInt
	colJSON
)

type table struct {
	name    string
	columns map[string]colKind
}

var (
	clientsTable = table{name: "clientes", columns: map[string]colKind{
		"nome_completo": colText, "nacionalidade": colText, "estado_civil": colText,
		"profissao": colText, "email": colText, "celular": colText, "data_nascimento": colText,
		"rg": colText, "orgao_emissor": colText, "cpf": colText, "caso": colText,
		"assunto_caso": colText, "responsavel_comercial": colText, "endereco": colText,
		"bairro": colText, "cidade": colText, "estado": colText, "cep": colText,
		"pasta_drive_id": colText, "documentos": colJSON,
	}}
	casesTable = table{name: "casos", columns: map[string]colKind{
		"cliente_id": colInt, "nome_cliente": colText, "caso": colText, "assunto_caso": colText,
		"responsavel_comercial": colText, "chave_caso": colText, "pasta_caso_id": colText,
		"pasta_caso_url": colText,
	}}
	companiesTable = table{name: "empresas", columns: map[string]colKind{
		"nome": colText, "cnpj": colText, "endereco": colText,
	}}
	caseLawTable = table{name: "jurisprudencias", columns: map[string]colKind{
		"nome": colText, "texto": colText, "secao": colText,
	}}
)

// update applies a partial update. Unknown columns and wrongly typed values are validation errors.
func (s *SQLStore) update(ctx context.Context, t table, id int64, changes map[string]any) error {
	if len(changes) == 0 {
		return nil
	}

	keys := make([]string, 0, len(changes))
	for k := range changes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sets := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys)+1)
	for _, k := range keys {
		kind, ok := t.columns[k]
		if !ok {
			return model.Kind(model.ErrValidation, fmt.Errorf("campo desconhecido: %s", k))
		}
		v, err := coerce(kind, changes[k])
		if err != nil {
			return model.Kind(model.ErrValidation, fmt.Errorf("campo %s: %w", k, err))
		}
		sets = append(sets, k+" = ?")
		args = append(args, v)
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", t.name, strings.Join(sets, ", "))
	res, err := s.db.ExecContext(ctx, s.dialect.Rebind(query), args...)
	if err != nil {
		return dbErr("failed to update "+t.name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func coerce(kind colKind, v any) (any, error) {
	switch kind {
	case colInt:
		switch n := v.(type) {
		case int64:
			return n, nil
		case int:
			return int64(n), nil
		case float64:
			if n != float64(int64(n)) {
				return nil, fmt.Errorf("valor inteiro esperado")
			}
			return int64(n), nil
		}
		return nil, fmt.Errorf("valor inteiro esperado")
	case colJSON:
		switch d := v.(type) {
		case model.Documentos:
			return d.Value()
		case *model.Documentos:
			return d.Value()
		case map[string]any:
			docs := model.Documentos{}
			if s, ok := d["identidade"].(string); ok {
				docs.Identidade = s
			}
			if s, ok := d["residencia"].(string); ok {
				docs.Residencia = s
			}
			if arr, ok := d["outros"].([]any); ok {
				for _, o := range arr {
					if s, ok := o.(string); ok {
						docs.Outros = append(docs.Outros, s)
					}
				}
			}
			return docs.Value()
		}
		return nil, fmt.Errorf("objeto esperado")
	default:
		switch s := v.(type) {
		case string:
			return s, nil
		case nil:
			return "", nil
		}
		return nil, fmt.Errorf("texto esperado")
	}
}

func (s *SQLStore) deleteByID(ctx context.Context, tableName string, id int64) error {
	res, err := s.db.ExecContext(ctx, s.dialect.Rebind("DELETE FROM "+tableName+" WHERE id = ?"), id)
	if err != nil {
		return dbErr("failed to delete from "+tableName, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) insertReturningID(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	if err := s.db.QueryRowContext(ctx, s.dialect.Rebind(query+" RETURNING id"), args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func nowISO() string { return dates.ISO(time.Now()) }

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return DefaultSearchLimit
	}
	return limit
}

// --- clientes ---

const clientColumns = `id, nome_completo, nacionalidade, estado_civil, profissao, email, celular,
	data_nascimento, rg, orgao_emissor, cpf, caso, assunto_caso, responsavel_comercial,
	endereco, bairro, cidade, estado, cep, pasta_drive_id, documentos, created_at`

func scanClient(row rowScanner) (*model.Client, error) {
	var c model.Client
	err := row.Scan(
		&c.ID, (*text)(&c.NomeCompleto), (*text)(&c.Nacionalidade), (*text)(&c.EstadoCivil),
		(*text)(&c.Profissao), (*text)(&c.Email), (*text)(&c.Celular), (*text)(&c.DataNascimento),
		(*text)(&c.RG), (*text)(&c.OrgaoEmissor), (*text)(&c.CPF), (*text)(&c.Caso),
		(*text)(&c.AssuntoCaso), (*text)(&c.ResponsavelComercial), (*text)(&c.Endereco),
		(*text)(&c.Bairro), (*text)(&c.Cidade), (*text)(&c.Estado), (*text)(&c.CEP),
		(*text)(&c.PastaDriveID), &c.Documentos, (*text)(&c.CreatedAt),
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *SQLStore) queryClients(ctx context.Context, query string, args ...any) ([]model.Client, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(query), args...)
	if err != nil {
		return nil, dbErr("failed to query clientes", err)
	}
	defer rows.Close()

	clients := []model.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, dbErr("failed to scan cliente", err)
		}
		clients = append(clients, *c)
	}
	return clients, dbErr("failed to iterate clientes", rows.Err())
}

func (s *SQLStore) InsertClient(ctx context.Context, c *model.Client) (*model.Client, error) {
	if c.CreatedAt == "" {
		c.CreatedAt = nowISO()
	}
	docs, err := c.Documentos.Value()
	if err != nil {
		return nil, fmt.Errorf("failed to encode documentos: %w", err)
	}

	id, err := s.insertReturningID(ctx, `INSERT INTO clientes (nome_completo, nacionalidade, estado_civil,
		profissao, email, celular, data_nascimento, rg, orgao_emissor, cpf, caso, assunto_caso,
		responsavel_comercial, endereco, bairro, cidade, estado, cep, pasta_drive_id, documentos, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.NomeCompleto, c.Nacionalidade, c.EstadoCivil, c.Profissao, c.Email, c.Celular,
		c.DataNascimento, c.RG, c.OrgaoEmissor, c.CPF, c.Caso, c.AssuntoCaso, c.ResponsavelComercial,
		c.Endereco, c.Bairro, c.Cidade, c.Estado, c.CEP, c.PastaDriveID, docs, c.CreatedAt,
	)
	if err != nil {
		return nil, dbErr("failed to insert cliente", err)
	}
	return s.GetClient(ctx, id)
}

func (s *SQLStore) UpdateClient(ctx context.Context, id int64, changes map[string]any) (*model.Client, error) {
	if err := s.update(ctx, clientsTable, id, changes); err != nil {
		return nil, err
	}
	return s.GetClient(ctx, id)
}

// DeleteClient refuses to delete a client that still has cases.
func (s *SQLStore) DeleteClient(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return dbErr("failed to begin transaction", err)
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRowContext(ctx, s.dialect.Rebind(`SELECT COUNT(*) FROM casos WHERE cliente_id = ?`), id).Scan(&n); err != nil {
		return dbErr("failed to count casos", err)
	}
	if n > 0 {
		return ErrClientHasCases
	}

	res, err := tx.ExecContext(ctx, s.dialect.Rebind(`DELETE FROM clientes WHERE id = ?`), id)
	if err != nil {
		return dbErr("failed to delete cliente", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return dbErr("failed to commit delete", tx.Commit())
}

func (s *SQLStore) GetClient(ctx context.Context, id int64) (*model.Client, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.Rebind(`SELECT `+clientColumns+` FROM clientes WHERE id = ?`), id)
	c, err := scanClient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, dbErr("failed to get cliente", err)
	}
	return c, nil
}

func (s *SQLStore) ListClients(ctx context.Context) ([]model.Client, error) {
	return s.queryClients(ctx, `SELECT `+clientColumns+` FROM clientes ORDER BY nome_completo`)
}

// SearchClients matches term case-insensitively against nome_completo, email and cpf.
// An empty term lists the first limit clients.
func (s *SQLStore) SearchClients(ctx context.Context, term string, limit int) ([]model.Client, error) {
	limit = limitOrDefault(limit)
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return s.queryClients(ctx, `SELECT `+clientColumns+` FROM clientes ORDER BY id LIMIT ?`, limit)
	}
	like := likePattern(term)
	return s.queryClients(ctx, `SELECT `+clientColumns+` FROM clientes
		WHERE LOWER(nome_completo) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\' OR LOWER(cpf) LIKE ? ESCAPE '\'
		ORDER BY id LIMIT ?`, like, like, like, limit)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern matches term anywhere, with LIKE wildcards in term taken literally.
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

func (s *SQLStore) GetClientByName(ctx context.Context, nomeCompleto string) (*model.Client, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.Rebind(`SELECT `+clientColumns+` FROM clientes WHERE nome_completo = ? ORDER BY id LIMIT 1`), nomeCompleto)
	c, err := scanClient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, dbErr("failed to get cliente by name", err)
	}
	return c, nil
}

func (s *SQLStore) SearchClientsByPartialName(ctx context.Context, partial string, limit int) ([]model.Client, error) {
	like := likePattern(strings.ToLower(strings.TrimSpace(partial)))
	return s.queryClients(ctx, `SELECT `+clientColumns+` FROM clientes
		WHERE LOWER(nome_completo) LIKE ? ESCAPE '\' ORDER BY nome_completo LIMIT ?`, like, limitOrDefault(limit))
}

// --- casos ---

const caseColumns = `id, cliente_id, nome_cliente, caso, assunto_caso, responsavel_comercial,
	chave_caso, pasta_caso_id, pasta_caso_url, created_at`

func scanCase(row rowScanner) (*model.Case, error) {
	var c model.Case
	err := row.Scan(&c.ID, &c.ClienteID, (*text)(&c.NomeCliente), (*text)(&c.Caso),
		(*text)(&c.AssuntoCaso), (*text)(&c.ResponsavelComercial), (*text)(&c.ChaveCaso),
		(*text)(&c.PastaCasoID), (*text)(&c.PastaCasoURL), (*text)(&c.CreatedAt))
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *SQLStore) queryCases(ctx context.Context, query string, args ...any) ([]model.Case, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(query), args...)
	if err != nil {
		return nil, dbErr("failed to query casos", err)
	}
	defer rows.Close()

	cases := []model.Case{}
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, dbErr("failed to scan caso", err)
		}
		cases = append(cases, *c)
	}
	return cases, dbErr("failed to iterate casos", rows.Err())
}

func (s *SQLStore) InsertCase(ctx context.Context, c *model.Case) (*model.Case, error) {
	if c.CreatedAt == "" {
		c.CreatedAt = nowISO()
	}
	id, err := s.insertReturningID(ctx, `INSERT INTO casos (cliente_id, nome_cliente, caso, assunto_caso,
		responsavel_comercial, chave_caso, pasta_caso_id, pasta_caso_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ClienteID, c.NomeCliente, c.Caso, c.AssuntoCaso, c.ResponsavelComercial,
		c.ChaveCaso, c.PastaCasoID, c.PastaCasoURL, c.CreatedAt,
	)
	if err != nil {
		return nil, dbErr("failed to insert caso", err)
	}
	return s.GetCase(ctx, id)
}

func (s *SQLStore) UpdateCase(ctx context.Context, id int64, changes map[string]any) (*model.Case, error) {
	if err := s.update(ctx, casesTable, id, changes); err != nil {
		return nil, err
	}
	return s.GetCase(ctx, id)
}

func (s *SQLStore) DeleteCase(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "casos", id)
}

func (s *SQLStore) GetCase(ctx context.Context, id int64) (*model.Case, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.Rebind(`SELECT `+caseColumns+` FROM casos WHERE id = ?`), id)
	c, err := scanCase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, dbErr("failed to get caso", err)
	}
	return c, nil
}

func (s *SQLStore) ListCases(ctx context.Context) ([]model.Case, error) {
	return s.queryCases(ctx, `SELECT `+caseColumns+` FROM casos ORDER BY id DESC`)
}

func (s *SQLStore) ListClientCases(ctx context.Context, clientID int64) ([]model.Case, error) {
	return s.queryCases(ctx, `SELECT `+caseColumns+` FROM casos WHERE cliente_id = ? ORDER BY id DESC`, clientID)
}

// --- empresas ---

func scanCompany(row rowScanner) (*model.Company, error) {
	var c model.Company
	if err := row.Scan(&c.ID, (*text)(&c.Nome), (*text)(&c.CNPJ), (*text)(&c.Endereco)); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *SQLStore) InsertCompany(ctx context.Context, c *model.Company) (*model.Company, error) {
	id, err := s.insertReturningID(ctx, `INSERT INTO empresas (nome, cnpj, endereco) VALUES (?, ?, ?)`,
		c.Nome, c.CNPJ, c.Endereco)
	if err != nil {
		return nil, dbErr("failed to insert empresa", err)
	}
	return s.GetCompany(ctx, id)
}

func (s *SQLStore) UpdateCompany(ctx context.Context, id int64, changes map[string]any) (*model.Company, error) {
	if err := s.update(ctx, companiesTable, id, changes); err != nil {
		return nil, err
	}
	return s.GetCompany(ctx, id)
}

func (s *SQLStore) DeleteCompany(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "empresas", id)
}

func (s *SQLStore) GetCompany(ctx context.Context, id int64) (*model.Company, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.Rebind(`SELECT id, nome, cnpj, endereco FROM empresas WHERE id = ?`), id)
	c, err := scanCompany(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, dbErr("failed to get empresa", err)
	}
	return c, nil
}

func (s *SQLStore) ListCompanies(ctx context.Context) ([]model.Company, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, nome, cnpj, endereco FROM empresas ORDER BY nome`)
	if err != nil {
		return nil, dbErr("failed to query empresas", err)
	}
	defer rows.Close()

	companies := []model.Company{}
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, dbErr("failed to scan empresa", err)
		}
		companies = append(companies, *c)
	}
	return companies, dbErr("failed to iterate empresas", rows.Err())
}

// --- jurisprudencias ---

func scanCaseLaw(row rowScanner) (*model.CaseLaw, error) {
	var c model.CaseLaw
	if err := row.Scan(&c.ID, (*text)(&c.Nome), (*text)(&c.Texto), (*text)(&c.Secao), (*text)(&c.CreatedAt)); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *SQLStore) InsertCaseLaw(ctx context.Context, c *model.CaseLaw) (*model.CaseLaw, error) {
	if c.CreatedAt == "" {
		c.CreatedAt = nowISO()
	}
	id, err := s.insertReturningID(ctx, `INSERT INTO jurisprudencias (nome, texto, secao, created_at) VALUES (?, ?, ?, ?)`,
		c.Nome, c.Texto, c.Secao, c.CreatedAt)
	if err != nil {
		return nil, dbErr("failed to insert jurisprudencia", err)
	}
	return s.GetCaseLaw(ctx, id)
}

func (s *SQLStore) UpdateCaseLaw(ctx context.Context, id int64, changes map[string]any) (*model.CaseLaw, error) {
	if err := s.update(ctx, caseLawTable, id, changes); err != nil {
		return nil, err
	}
	return s.GetCaseLaw(ctx, id)
}

func (s *SQLStore) DeleteCaseLaw(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "jurisprudencias", id)
}

func (s *SQLStore) GetCaseLaw(ctx context.Context, id int64) (*model.CaseLaw, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.Rebind(`SELECT id, nome, texto, secao, created_at FROM jurisprudencias WHERE id = ?`), id)
	c, err := scanCaseLaw(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, dbErr("failed to get jurisprudencia", err)
	}
	return c, nil
}

// ListCaseLaw returns every entry ordered by secao.
func (s *SQLStore) ListCaseLaw(ctx context.Context) ([]model.CaseLaw, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, nome, texto, secao, created_at FROM jurisprudencias ORDER BY secao, id`)
	if err != nil {
		return nil, dbErr("failed to query jurisprudencias", err)
	}
	defer rows.Close()

	list := []model.CaseLaw{}
	for rows.Next() {
		c, err := scanCaseLaw(rows)
		if err != nil {
			return nil, dbErr("failed to scan jurisprudencia", err)
		}
		list = append(list, *c)
	}
	return list, dbErr("failed to iterate jurisprudencias", rows.Err())
}

// --- treinamento_fatos ---

func (s *SQLStore) InsertTrainingExample(ctx context.Context, e *model.TrainingExample) (*model.TrainingExample, error) {
	if e.CreatedAt == "" {
		e.CreatedAt = nowISO()
	}
	id, err := s.insertReturningID(ctx, `INSERT INTO treinamento_fatos (caso, input_text, output_text, created_at) VALUES (?, ?, ?, ?)`,
		e.Caso, e.InputText, e.OutputText, e.CreatedAt)
	if err != nil {
		return nil, dbErr("failed to insert treinamento", err)
	}
	out := *e
	out.ID = id
	return &out, nil
}

func (s *SQLStore) ListTrainingExamples(ctx context.Context, caso string, limit int) ([]model.TrainingExample, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(`SELECT id, caso, input_text, output_text, created_at
		FROM treinamento_fatos WHERE caso = ? ORDER BY id DESC LIMIT ?`), caso, limitOrDefault(limit))
	if err != nil {
		return nil, dbErr("failed to query treinamento_fatos", err)
	}
	defer rows.Close()

	list := []model.TrainingExample{}
	for rows.Next() {
		var e model.TrainingExample
		if err := rows.Scan(&e.ID, (*text)(&e.Caso), (*text)(&e.InputText), (*text)(&e.OutputText), (*text)(&e.CreatedAt)); err != nil {
			return nil, dbErr("failed to scan treinamento", err)
		}
		list = append(list, e)
	}
	return list, dbErr("failed to iterate treinamento_fatos", rows.Err())
}
