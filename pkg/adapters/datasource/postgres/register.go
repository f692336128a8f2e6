package postgres

import (
	"github.com/ekaya-inc/ekaya-datasource/pkg/adapters/datasource"
)

func init() {
	datasource.Register(datasource.DriverRegistration{
		Info: datasource.DriverInfo{
			Type:        "postgres",
			DisplayName: "PostgreSQL",
			Description: "PostgreSQL 12+, Aurora PostgreSQL, Supabase via pgxpool",
			Aliases:     []string{"pgx", "postgresql", "pgsql", "org.postgresql.Driver"},
		},
		Open: Open,
	})
}
