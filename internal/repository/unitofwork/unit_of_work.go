package unitofwork

import (
	"context"

	"prd-builder-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	PrdDocumentRepository() contract.PrdDocumentRepository
}
