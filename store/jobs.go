package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Job is one routing-optimization request: one provider, one vehicle, a
// set of clients and a planning horizon.
type Job struct {
	ID            string    `json:"id"`
	ZoneID        *string   `json:"zone_id,omitempty"`
	ProviderID    string    `json:"provider_id"`
	VehicleID     string    `json:"vehicle_id"`
	HorizonLength int       `json:"horizon_length"`
	State         string    `json:"state"`
	ErrorDetail   string    `json:"error_detail"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	ClientIDs     []string  `json:"client_ids,omitempty"`
}

type JobHistory struct {
	ID        int64     `json:"id"`
	JobID     string    `json:"job_id"`
	State     string    `json:"state"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

const jobSelectCols = `id, zone_id, provider_id, vehicle_id, horizon_length, state, error_detail, created_at, updated_at`

func scanJob(row interface{ Scan(...any) error }) (*Job, error) {
	var j Job
	var zoneID sql.NullString
	var createdAt, updatedAt any
	err := row.Scan(&j.ID, &zoneID, &j.ProviderID, &j.VehicleID, &j.HorizonLength,
		&j.State, &j.ErrorDetail, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	j.ZoneID = scanNullableID(zoneID)
	j.CreatedAt = parseTime(createdAt)
	j.UpdatedAt = parseTime(updatedAt)
	return &j, nil
}

// CreateJob inserts the job and its client set in one transaction. The
// client set order is preserved via the position column.
func (db *DB) CreateJob(j *Job, clientIDs []string) error {
	if j.ID == "" {
		j.ID = uuid.New().String()
	}
	if j.State == "" {
		j.State = "pending"
	}
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(db.Q(`INSERT INTO jobs (id, zone_id, provider_id, vehicle_id, horizon_length, state) VALUES (?, ?, ?, ?, ?, ?)`),
		j.ID, nullableID(j.ZoneID), j.ProviderID, j.VehicleID, j.HorizonLength, j.State)
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	for i, clientID := range clientIDs {
		_, err = tx.Exec(db.Q(`INSERT INTO job_clients (job_id, client_id, position) VALUES (?, ?, ?)`),
			j.ID, clientID, i)
		if err != nil {
			return fmt.Errorf("create job client %s: %w", clientID, err)
		}
	}
	_, err = tx.Exec(db.Q(`INSERT INTO job_history (job_id, state, detail) VALUES (?, ?, ?)`),
		j.ID, j.State, "job created")
	if err != nil {
		return fmt.Errorf("create job history: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	j.ClientIDs = clientIDs
	return nil
}

func (db *DB) GetJob(id string) (*Job, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s FROM jobs WHERE id=?`, jobSelectCols)), id)
	j, err := scanJob(row)
	if err != nil {
		return nil, err
	}
	j.ClientIDs, err = db.JobClientIDs(id)
	if err != nil {
		return nil, err
	}
	return j, nil
}

func (db *DB) JobClientIDs(jobID string) ([]string, error) {
	rows, err := db.Query(db.Q(`SELECT client_id FROM job_clients WHERE job_id=? ORDER BY position`), jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (db *DB) ListJobs(state string, limit int) ([]*Job, error) {
	var rows *sql.Rows
	var err error
	if state != "" {
		rows, err = db.Query(db.Q(fmt.Sprintf(`SELECT %s FROM jobs WHERE state=? ORDER BY created_at DESC LIMIT ?`, jobSelectCols)), state, limit)
	} else {
		rows, err = db.Query(db.Q(fmt.Sprintf(`SELECT %s FROM jobs ORDER BY created_at DESC LIMIT ?`, jobSelectCols)), limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var jobs []*Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// TransitionJob moves a job from one state to another, appending history.
// The WHERE state=? guard is the serialization point: if the job is not in
// the expected source state the update affects zero rows and
// ErrStateConflict is returned.
func (db *DB) TransitionJob(id, from, to, detail string) error {
	res, err := db.Exec(db.Q(`UPDATE jobs SET state=?, error_detail=?, updated_at=datetime('now','localtime') WHERE id=? AND state=?`),
		to, detail, id, from)
	if err != nil {
		return fmt.Errorf("transition job %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition job %s: %w", id, err)
	}
	if n == 0 {
		return ErrStateConflict
	}
	_, err = db.Exec(db.Q(`INSERT INTO job_history (job_id, state, detail) VALUES (?, ?, ?)`),
		id, to, detail)
	return err
}

func (db *DB) ListJobHistory(jobID string) ([]*JobHistory, error) {
	rows, err := db.Query(db.Q(`SELECT id, job_id, state, detail, created_at FROM job_history WHERE job_id=? ORDER BY id`), jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var history []*JobHistory
	for rows.Next() {
		var h JobHistory
		var createdAt any
		if err := rows.Scan(&h.ID, &h.JobID, &h.State, &h.Detail, &createdAt); err != nil {
			return nil, err
		}
		h.CreatedAt = parseTime(createdAt)
		history = append(history, &h)
	}
	return history, rows.Err()
}

// DeleteJob removes a job and its client set. Jobs with solutions are
// kept as append-only history and may not be deleted.
func (db *DB) DeleteJob(id string) error {
	n, err := db.CountSolutionsForJob(id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("delete job %s: %d solutions exist", id, n)
	}
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec(db.Q(`DELETE FROM job_clients WHERE job_id=?`), id); err != nil {
		return err
	}
	if _, err := tx.Exec(db.Q(`DELETE FROM job_history WHERE job_id=?`), id); err != nil {
		return err
	}
	if _, err := tx.Exec(db.Q(`DELETE FROM jobs WHERE id=?`), id); err != nil {
		return err
	}
	return tx.Commit()
}

// CountJobsByState returns job counts keyed by state, for the stats API.
func (db *DB) CountJobsByState() (map[string]int, error) {
	rows, err := db.Query(`SELECT state, COUNT(*) FROM jobs GROUP BY state`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var state string
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return nil, err
		}
		counts[state] = n
	}
	return counts, rows.Err()
}
