package mysql

import (
	"github.com/ekaya-inc/ekaya-datasource/pkg/adapters/datasource"
)

func init() {
	datasource.Register(datasource.DriverRegistration{
		Info: datasource.DriverInfo{
			Type:        "mysql",
			DisplayName: "MySQL / MariaDB",
			Description: "MySQL 8+, MariaDB 10.6+ via go-sql-driver/mysql",
			Aliases: []string{
				"mariadb",
				"com.mysql.cj.jdbc.Driver",
				"com.mysql.jdbc.Driver",
				"org.mariadb.jdbc.Driver",
			},
		},
		Open: Open,
	})
}
