// Package migrations embeds the SQL migration files for the admin dashboard
// database. Migrations are applied in filename order by database.RunMigrations.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
