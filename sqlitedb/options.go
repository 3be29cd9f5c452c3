package sqlitedb

// specific sqlitedb options
type Config struct {
	// Dir is the database file path, or a modernc.org/sqlite DSN.
	Dir string
	// InMemory uses a private :memory: database.
	InMemory bool
}
