package database

import (
	"fmt"
	"log"
	"strings"
)

// expectedTables is the schema surface the GORM store maintains. The raw
// store never creates tables; it only confirms they exist so the status CLI
// can flag a database the API has not migrated yet.
var expectedTables = []string{
	"users",
	"user_settings",
	"password_reset_tokens",
	"email_verification_tokens",
	"guest_usage",
	"search_records",
	"export_records",
	"payments",
	"user_activities",
	"page_visits",
	"site_analytics",
	"app_settings",
	"jwt_token_blacklist",
	"cron_job_logs",
	"admin_audit_logs",
}

// ExpectedTables returns the table names the status CLI reports on
func ExpectedTables() []string {
	return append([]string(nil), expectedTables...)
}

// VerifySchema checks that every expected table is present
func (s *PostgreSQLStore) VerifySchema() error {
	log.Println("Verifying PostgreSQL database schema.")

	missing, err := s.MissingTables()
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing tables (run the API once to migrate): %s", strings.Join(missing, ", "))
	}

	log.Println("All expected tables present.")
	return nil
}

// MissingTables returns expected tables absent from the public schema
func (s *PostgreSQLStore) MissingTables() ([]string, error) {
	query := `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE';
	`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	present := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		present[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	missing := []string{}
	for _, table := range expectedTables {
		if !present[table] {
			missing = append(missing, table)
		}
	}
	return missing, nil
}
