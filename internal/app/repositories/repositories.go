package repositories

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories holds all the PostgreSQL repository instances
type Repositories struct {
	EnrollmentRepository *EnrollmentRepository
	CatalogRepository    *CatalogRepository
}

// NewRepositories initializes all repositories on one shared pool
func NewRepositories(db *pgxpool.Pool, txTimeout time.Duration) *Repositories {
	return &Repositories{
		EnrollmentRepository: NewEnrollmentRepository(db, txTimeout),
		CatalogRepository:    NewCatalogRepository(db, txTimeout),
	}
}
