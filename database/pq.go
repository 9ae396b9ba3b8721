package database

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/leadscout/leadscout/config"
	_ "github.com/lib/pq"
)

// Storage is what the rest of the app sees of a database backend
type Storage interface {
	Init() error
	Close() error
	HealthCheck() error

	// GetDB hands back the underlying handle: *gorm.DB for GORMStore,
	// *sql.DB for PostgreSQLStore.
	GetDB() interface{}
}

// postgresDSN builds the keyword/value connection string both stores use
func postgresDSN(env *config.EnviornmentVariable) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		env.DB_HOST, env.DB_PORT, env.DB_USER_NAME, env.DB_PASSWORD, env.DB_NAME, env.DB_SSL_MODE)
}

// PostgreSQLStore is a raw database/sql store used by operational tooling
// (cmd/dbcheck) that inspects the schema the GORM store manages.
type PostgreSQLStore struct {
	db *sql.DB
}

// Start opens a raw connection and confirms the server is reachable
func Start() (*PostgreSQLStore, error) {
	env, err := config.Get()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", postgresDSN(env))
	if err != nil {
		log.Println("Unable to open PostgreSQL connection:", err)
		return nil, err
	}

	// sql.Open only validates arguments; the first Ping actually dials
	if err := db.Ping(); err != nil {
		log.Println("PostgreSQL is unreachable:", err)
		return nil, err
	}

	log.Println("Connected to PostgreSQL.")
	return &PostgreSQLStore{db: db}, nil
}

func (s *PostgreSQLStore) Init() error {
	log.Println("Initializing PostgreSQL store.")
	return s.VerifySchema()
}

func (s *PostgreSQLStore) Close() error {
	log.Println("Closing PostgreSQL connection.")
	return s.db.Close()
}

// HealthCheck verifies the database connection is alive
func (s *PostgreSQLStore) HealthCheck() error {
	return s.db.Ping()
}

// GetDB returns the raw sql.DB instance
func (s *PostgreSQLStore) GetDB() interface{} {
	return s.db
}
