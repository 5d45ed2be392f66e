package migrations

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite3"
)

// dialect selects the column types the migrations emit.
var dialect = DialectPostgres

// SetDialect must be called before the migrations run.
func SetDialect(d string) {
	dialect = d
}
