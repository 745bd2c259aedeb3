package config

const (
	// DefaultDatabasePath is the default path for the application database
	DefaultDatabasePath = "./booknotes.db"

	// DefaultCoversBaseURL is the OpenLibrary covers endpoint
	DefaultCoversBaseURL = "https://covers.openlibrary.org"

	// DefaultBcryptCost matches the cost factor used for stored password hashes
	DefaultBcryptCost = 10

	// DefaultPageSize is the number of books per page on list views
	DefaultPageSize = 10
)
