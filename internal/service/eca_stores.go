package service

import (
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-eca-api/internal/repository"
)

// NewSQLECAStores binds the allocation stores to PostgreSQL.
func NewSQLECAStores(db *sqlx.DB) ECAAllocationStores {
	return ECAAllocationStores{
		Terms:       repository.NewTermRepository(db),
		Schools:     repository.NewSchoolRepository(db),
		Activities:  repository.NewECAActivityRepository(db),
		Selections:  repository.NewECASelectionRepository(db),
		Allocations: repository.NewECAAllocationRepository(db),
		Waitlist:    repository.NewECAWaitlistRepository(db),
	}
}

// NewMemoryECAStores binds the allocation stores to an in-process store, used for simulations.
func NewMemoryECAStores(store *repository.MemoryStore) ECAAllocationStores {
	return ECAAllocationStores{
		Terms:       repository.NewMemoryTermRepository(store),
		Schools:     repository.NewMemorySchoolRepository(store),
		Activities:  repository.NewMemoryActivityRepository(store),
		Selections:  repository.NewMemorySelectionRepository(store),
		Allocations: repository.NewMemoryAllocationRepository(store),
		Waitlist:    repository.NewMemoryWaitlistRepository(store),
	}
}
