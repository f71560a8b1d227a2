package cli

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/brunomcduarte96/deploy-smartlegal/internal/model"
	"github.com/brunomcduarte96/deploy-smartlegal/internal/store"
	"github.com/brunomcduarte96/deploy-smartlegal/internal/validation"
	"github.com/jszwec/csvutil"
	"github.com/spf13/cobra"
)

// clientRow is the exported view of a client. Drive document ids are left out.
type clientRow struct {
	ID                   int64  `csv:"id"`
	NomeCompleto         string `csv:"nome_completo"`
	CPF                  string `csv:"cpf"`
	RG                   string `csv:"rg"`
	Email                string `csv:"email"`
	Celular              string `csv:"celular"`
	Nacionalidade        string `csv:"nacionalidade"`
	EstadoCivil          string `csv:"estado_civil"`
	Profissao            string `csv:"profissao"`
	Caso                 string `csv:"caso"`
	AssuntoCaso          string `csv:"assunto_caso"`
	ResponsavelComercial string `csv:"responsavel_comercial"`
	Endereco             string `csv:"endereco"`
	Bairro               string `csv:"bairro"`
	Cidade               string `csv:"cidade"`
	Estado               string `csv:"estado"`
	CEP                  string `csv:"cep"`
	PastaDriveID         string `csv:"pasta_drive_id"`
	CreatedAt            string `csv:"created_at"`
}

func newClientRow(c *model.Client) clientRow {
	return clientRow{
		ID: c.ID, NomeCompleto: c.NomeCompleto, CPF: c.CPF, RG: c.RG, Email: c.Email, Celular: c.Celular,
		Nacionalidade: c.Nacionalidade, EstadoCivil: c.EstadoCivil, Profissao: c.Profissao,
		Caso: c.Caso, AssuntoCaso: c.AssuntoCaso, ResponsavelComercial: c.ResponsavelComercial,
		Endereco: c.Endereco, Bairro: c.Bairro, Cidade: c.Cidade, Estado: c.Estado, CEP: c.CEP,
		PastaDriveID: c.PastaDriveID, CreatedAt: c.CreatedAt,
	}
}

// decodeAll reads every row of r into []T. Row numbers in errors count the header as line 1.
func decodeAll[T any](r io.Reader) ([]T, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	var out []T
	for line := 2; ; line++ {
		var v T
		if err := dec.Decode(&v); err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("linha %d: %w", line, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// ImportCompanies validates every row before inserting any of them.
func ImportCompanies(ctx context.Context, st store.Store, r io.Reader) (int, error) {
	rows, err := decodeAll[model.Company](r)
	if err != nil {
		return 0, err
	}
	for i := range rows {
		if err := validation.ValidateCompany(&rows[i]).Err(); err != nil {
			return 0, fmt.Errorf("linha %d: %w", i+2, err)
		}
	}
	for i := range rows {
		if _, err := st.InsertCompany(ctx, &rows[i]); err != nil {
			return i, fmt.Errorf("linha %d: %w", i+2, err)
		}
	}
	return len(rows), nil
}

// ImportCaseLaw validates every row before inserting any of them.
func ImportCaseLaw(ctx context.Context, st store.Store, r io.Reader) (int, error) {
	rows, err := decodeAll[model.CaseLaw](r)
	if err != nil {
		return 0, err
	}
	for i := range rows {
		if err := validation.ValidateCaseLaw(&rows[i]).Err(); err != nil {
			return 0, fmt.Errorf("linha %d: %w", i+2, err)
		}
	}
	for i := range rows {
		if _, err := st.InsertCaseLaw(ctx, &rows[i]); err != nil {
			return i, fmt.Errorf("linha %d: %w", i+2, err)
		}
	}
	return len(rows), nil
}

// ExportClients writes every client as CSV, header included even when there are none.
func ExportClients(ctx context.Context, st store.Store, w io.Writer) (int, error) {
	clients, err := st.ListClients(ctx)
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	if err := enc.EncodeHeader(clientRow{}); err != nil {
		return 0, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i := range clients {
		if err := enc.Encode(newClientRow(&clients[i])); err != nil {
			return i, fmt.Errorf("failed to write client %d: %w", clients[i].ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return len(clients), nil
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import reference data from CSV",
	}

	importer := func(use, short string, run func(context.Context, store.Store, io.Reader) (int, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <file.csv>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open CSV file: %w", err)
				}
				defer f.Close()

				st, err := openStore(cmd.Context(), true)
				if err != nil {
					return err
				}
				defer st.Close()

				n, err := run(cmd.Context(), st, f)
				if err != nil {
					return err
				}
				log.Printf("Imported %d %s from %s", n, use, args[0])
				return nil
			},
		}
	}

	cmd.AddCommand(
		importer("companies", "Import airlines (nome, cnpj, endereco)", ImportCompanies),
		importer("caselaw", "Import case-law citations (nome, texto, secao)", ImportCaseLaw),
	)
	return cmd
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export data as CSV",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clients <file.csv>",
		Short: "Export every client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer st.Close()

			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("failed to create CSV file: %w", err)
			}
			n, err := ExportClients(cmd.Context(), st, f)
			if cerr := f.Close(); err == nil && cerr != nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			log.Printf("Exported %d clients to %s", n, args[0])
			return nil
		},
	})
	return cmd
}
