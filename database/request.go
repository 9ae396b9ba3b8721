package database

import (
	"database/sql"
	"fmt"
	"slices"
	"time"

	queryHelper "github.com/leadscout/leadscout/utils/query"
)

// AdminAccount is a slim row used by the status CLI
type AdminAccount struct {
	ID       int64
	Email    string
	Name     string
	Plan     string
	Verified bool
	Active   bool
}

// GuestUsageStat reports one guest bucket for the status CLI
type GuestUsageStat struct {
	ClientKey   string
	SearchCount int
	FirstSeenAt time.Time
	LastSeenAt  time.Time
}

// CronRunSummary reports one recorded cron execution
type CronRunSummary struct {
	JobName    string
	Status     string
	StartedAt  time.Time
	DurationMs int
	ErrorMsg   string
}

// CountRows returns the row count for a known table. Table names are checked
// against the expected schema so the CLI can never interpolate free text.
func (s *PostgreSQLStore) CountRows(table string) (int64, error) {
	if !slices.Contains(expectedTables, table) {
		return 0, fmt.Errorf("unknown table %q", table)
	}

	var count int64
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s;`, table)
	if err := s.db.QueryRow(query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// GetAdminAccounts lists admin users for the status report
func (s *PostgreSQLStore) GetAdminAccounts() ([]AdminAccount, error) {
	query := `
		SELECT id, email, name, current_plan, email_verified, is_active
		FROM users
		WHERE role = 'admin' AND deleted_at IS NULL
		ORDER BY id;
	`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := []AdminAccount{}
	for rows.Next() {
		acc, err := scanIntoAdminAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *acc)
	}

	return accounts, rows.Err()
}

// TopGuestUsage returns the heaviest anonymous consumers, current first
func (s *PostgreSQLStore) TopGuestUsage(limit int) ([]GuestUsageStat, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT client_key, search_count, first_seen_at, last_seen_at
		FROM guest_usage
		ORDER BY search_count DESC, last_seen_at DESC
		LIMIT $1;
	`
	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := []GuestUsageStat{}
	for rows.Next() {
		stat, err := scanIntoGuestUsageStat(rows)
		if err != nil {
			return nil, err
		}
		stats = append(stats, *stat)
	}

	return stats, rows.Err()
}

// RecentCronRuns returns the latest recorded job executions
func (s *PostgreSQLStore) RecentCronRuns(limit int) ([]CronRunSummary, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT job_name, status, started_at, COALESCE(duration_ms, 0), COALESCE(error_msg, '')
		FROM cron_job_logs
		WHERE deleted_at IS NULL
		ORDER BY started_at DESC
		LIMIT $1;
	`
	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []CronRunSummary{}
	for rows.Next() {
		run := new(CronRunSummary)
		if err := rows.Scan(&run.JobName, &run.Status, &run.StartedAt, &run.DurationMs, &run.ErrorMsg); err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}

	return runs, rows.Err()
}

// PromoteUserRole sets the role column for one user, used by the status CLI
// to repair a deployment whose admin account lost its role
func (s *PostgreSQLStore) PromoteUserRole(userID int64, role string) error {
	query, values := queryHelper.UpdateQueryBuilder("users", "id", userID, struct{ Role string }{Role: role})

	if _, err := s.db.Exec(query, values...); err != nil {
		return err
	}
	return nil
}

func scanIntoAdminAccount(rows *sql.Rows) (*AdminAccount, error) {
	acc := new(AdminAccount)
	err := rows.Scan(
		&acc.ID,
		&acc.Email,
		&acc.Name,
		&acc.Plan,
		&acc.Verified,
		&acc.Active,
	)
	if err != nil {
		return nil, err
	}
	return acc, nil
}

func scanIntoGuestUsageStat(rows *sql.Rows) (*GuestUsageStat, error) {
	stat := new(GuestUsageStat)
	err := rows.Scan(
		&stat.ClientKey,
		&stat.SearchCount,
		&stat.FirstSeenAt,
		&stat.LastSeenAt,
	)
	if err != nil {
		return nil, err
	}
	return stat, nil
}
