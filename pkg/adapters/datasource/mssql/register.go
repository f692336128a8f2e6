package mssql

import (
	"github.com/ekaya-inc/ekaya-datasource/pkg/adapters/datasource"
)

func init() {
	datasource.Register(datasource.DriverRegistration{
		Info: datasource.DriverInfo{
			Type:        "mssql",
			DisplayName: "Microsoft SQL Server",
			Description: "SQL Server 2019+, Azure SQL Database via go-mssqldb",
			Aliases:     []string{"sqlserver", "azuresql", "com.microsoft.sqlserver.jdbc.SQLServerDriver"},
		},
		Open: Open,
	})
}
