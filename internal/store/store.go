// Package store persists clients, cases, airlines, case-law and training pairs.
package store

import (
	"context"
	"errors"

	"github.com/brunomcduarte96/deploy-smartlegal/internal/model"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrClientHasCases = errors.New("client has cases")
)

// DefaultSearchLimit applies when a search is called with limit <= 0.
const DefaultSearchLimit = 10

// Store is the persistence boundary used by services and handlers.
// Update methods take the changed columns only and return the updated row.
type Store interface {
	InsertClient(ctx context.Context, c *model.Client) (*model.Client, error)
	UpdateClient(ctx context.Context, id int64, changes map[string]any) (*model.Client, error)
	DeleteClient(ctx context.Context, id int64) error
	GetClient(ctx context.Context, id int64) (*model.Client, error)
	ListClients(ctx context.Context) ([]model.Client, error)
	SearchClients(ctx context.Context, term string, limit int) ([]model.Client, error)
	GetClientByName(ctx context.Context, nomeCompleto string) (*model.Client, error)
	SearchClientsByPartialName(ctx context.Context, partial string, limit int) ([]model.Client, error)

	InsertCase(ctx context.Context, c *model.Case) (*model.Case, error)
	UpdateCase(ctx context.Context, id int64, changes map[string]any) (*model.Case, error)
	DeleteCase(ctx context.Context, id int64) error
	GetCase(ctx context.Context, id int64) (*model.Case, error)
	ListCases(ctx context.Context) ([]model.Case, error)
	ListClientCases(ctx context.Context, clientID int64) ([]model.Case, error)

	InsertCompany(ctx context.Context, c *model.Company) (*model.Company, error)
	UpdateCompany(ctx context.Context, id int64, changes map[string]any) (*model.Company, error)
	DeleteCompany(ctx context.Context, id int64) error
	GetCompany(ctx context.Context, id int64) (*model.Company, error)
	ListCompanies(ctx context.Context) ([]model.Company, error)

	InsertCaseLaw(ctx context.Context, c *model.CaseLaw) (*model.CaseLaw, error)
	UpdateCaseLaw(ctx context.Context, id int64, changes map[string]any) (*model.CaseLaw, error)
	DeleteCaseLaw(ctx context.Context, id int64) error
	GetCaseLaw(ctx context.Context, id int64) (*model.CaseLaw, error)
	ListCaseLaw(ctx context.Context) ([]model.CaseLaw, error)

	InsertTrainingExample(ctx context.Context, e *model.TrainingExample) (*model.TrainingExample, error)
	// ListTrainingExamples returns the newest pairs for caso, newest first.
	ListTrainingExamples(ctx context.Context, caso string, limit int) ([]model.TrainingExample, error)

	Close() error
}
