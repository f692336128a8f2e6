package sqlite

import (
	"github.com/ekaya-inc/ekaya-datasource/pkg/adapters/datasource"
)

func init() {
	datasource.Register(datasource.DriverRegistration{
		Info: datasource.DriverInfo{
			Type:        "sqlite",
			DisplayName: "SQLite",
			Description: "Embedded SQLite 3 database files via modernc.org/sqlite",
			Aliases:     []string{"sqlite3", "org.sqlite.JDBC"},
		},
		Open: Open,
	})
}
