package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Solution is one optimization outcome for a job. A job accumulates
// solutions append-only; the most recent by creation is authoritative.
type Solution struct {
	ID        string    `json:"id"`
	JobID     string    `json:"job_id"`
	Cost      float64   `json:"cost"`
	Policy    string    `json:"policy"`
	Driver    *string   `json:"driver,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Routes    []*Route  `json:"routes,omitempty"`
}

type Route struct {
	ID         int64    `json:"id"`
	SolutionID string   `json:"solution_id"`
	Orden      int      `json:"orden"`
	Cost       float64  `json:"cost"`
	Visits     []*Visit `json:"visits,omitempty"`
}

type Visit struct {
	ID        int64  `json:"id"`
	RouteID   int64  `json:"route_id"`
	ClientID  string `json:"client_id"`
	Orden     int    `json:"orden"`
	Quantity  int    `json:"quantity"`
	Completed bool   `json:"completed"`
}

// SaveSolution persists a solution with its routes and visits and moves
// the owning job from Processing to Resolved, all in one transaction.
// The guarded transition runs first: a duplicate callback for an already
// resolved job fails with ErrStateConflict before any row is written.
func (db *DB) SaveSolution(sol *Solution, routes []*Route) error {
	if sol.ID == "" {
		sol.ID = uuid.New().String()
	}
	if sol.Policy == "" {
		sol.Policy = "ML"
	}
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("save solution: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(db.Q(`UPDATE jobs SET state='resolved', error_detail='', updated_at=datetime('now','localtime') WHERE id=? AND state='processing'`), sol.JobID)
	if err != nil {
		return fmt.Errorf("save solution: resolve job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save solution: resolve job: %w", err)
	}
	if n == 0 {
		return ErrStateConflict
	}

	var driver any
	if sol.Driver != nil {
		driver = *sol.Driver
	}
	_, err = tx.Exec(db.Q(`INSERT INTO solutions (id, job_id, cost, policy, driver) VALUES (?, ?, ?, ?, ?)`),
		sol.ID, sol.JobID, sol.Cost, sol.Policy, driver)
	if err != nil {
		return fmt.Errorf("save solution: %w", err)
	}

	for _, route := range routes {
		route.SolutionID = sol.ID
		routeRes, err := tx.Exec(db.Q(`INSERT INTO routes (solution_id, orden, cost) VALUES (?, ?, ?)`),
			sol.ID, route.Orden, route.Cost)
		if err != nil {
			return fmt.Errorf("save route %d: %w", route.Orden, err)
		}
		if db.driver == "sqlite" {
			route.ID, err = routeRes.LastInsertId()
			if err != nil {
				return fmt.Errorf("save route %d: %w", route.Orden, err)
			}
		} else {
			err = tx.QueryRow(db.Q(`SELECT id FROM routes WHERE solution_id=? AND orden=?`), sol.ID, route.Orden).Scan(&route.ID)
			if err != nil {
				return fmt.Errorf("save route %d: %w", route.Orden, err)
			}
		}
		for _, visit := range route.Visits {
			visit.RouteID = route.ID
			visitRes, err := tx.Exec(db.Q(`INSERT INTO visits (route_id, client_id, orden, quantity, completed) VALUES (?, ?, ?, ?, ?)`),
				route.ID, visit.ClientID, visit.Orden, visit.Quantity, visit.Completed)
			if err != nil {
				return fmt.Errorf("save visit %d/%d: %w", route.Orden, visit.Orden, err)
			}
			if db.driver == "sqlite" {
				visit.ID, err = visitRes.LastInsertId()
			} else {
				err = tx.QueryRow(db.Q(`SELECT id FROM visits WHERE route_id=? AND orden=?`), route.ID, visit.Orden).Scan(&visit.ID)
			}
			if err != nil {
				return fmt.Errorf("save visit %d/%d: %w", route.Orden, visit.Orden, err)
			}
		}
	}

	_, err = tx.Exec(db.Q(`INSERT INTO job_history (job_id, state, detail) VALUES (?, 'resolved', ?)`),
		sol.JobID, fmt.Sprintf("solution %s ingested", sol.ID))
	if err != nil {
		return fmt.Errorf("save solution history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save solution: %w", err)
	}
	sol.Routes = routes
	return nil
}

const solutionSelectCols = `id, job_id, cost, policy, driver, created_at`

func scanSolution(row interface{ Scan(...any) error }) (*Solution, error) {
	var s Solution
	var driver sql.NullString
	var createdAt any
	err := row.Scan(&s.ID, &s.JobID, &s.Cost, &s.Policy, &driver, &createdAt)
	if err != nil {
		return nil, err
	}
	s.Driver = scanNullableID(driver)
	s.CreatedAt = parseTime(createdAt)
	return &s, nil
}

func (db *DB) GetSolution(id string) (*Solution, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s FROM solutions WHERE id=?`, solutionSelectCols)), id)
	sol, err := scanSolution(row)
	if err != nil {
		return nil, err
	}
	sol.Routes, err = db.listRoutes(sol.ID)
	return sol, err
}

// LatestSolutionForJob returns the authoritative (most recent) solution.
func (db *DB) LatestSolutionForJob(jobID string) (*Solution, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s FROM solutions WHERE job_id=? ORDER BY created_at DESC, id DESC LIMIT 1`, solutionSelectCols)), jobID)
	sol, err := scanSolution(row)
	if err != nil {
		return nil, err
	}
	sol.Routes, err = db.listRoutes(sol.ID)
	return sol, err
}

func (db *DB) ListSolutionsForJob(jobID string) ([]*Solution, error) {
	rows, err := db.Query(db.Q(fmt.Sprintf(`SELECT %s FROM solutions WHERE job_id=? ORDER BY created_at DESC, id DESC`, solutionSelectCols)), jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sols []*Solution
	for rows.Next() {
		s, err := scanSolution(rows)
		if err != nil {
			return nil, err
		}
		sols = append(sols, s)
	}
	return sols, rows.Err()
}

func (db *DB) CountSolutionsForJob(jobID string) (int, error) {
	var n int
	err := db.QueryRow(db.Q(`SELECT COUNT(*) FROM solutions WHERE job_id=?`), jobID).Scan(&n)
	return n, err
}

func (db *DB) listRoutes(solutionID string) ([]*Route, error) {
	rows, err := db.Query(db.Q(`SELECT id, solution_id, orden, cost FROM routes WHERE solution_id=? ORDER BY orden`), solutionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var routes []*Route
	for rows.Next() {
		var r Route
		if err := rows.Scan(&r.ID, &r.SolutionID, &r.Orden, &r.Cost); err != nil {
			return nil, err
		}
		routes = append(routes, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, r := range routes {
		r.Visits, err = db.listVisits(r.ID)
		if err != nil {
			return nil, err
		}
	}
	return routes, nil
}

func (db *DB) listVisits(routeID int64) ([]*Visit, error) {
	rows, err := db.Query(db.Q(`SELECT id, route_id, client_id, orden, quantity, completed FROM visits WHERE route_id=? ORDER BY orden`), routeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var visits []*Visit
	for rows.Next() {
		var v Visit
		if err := rows.Scan(&v.ID, &v.RouteID, &v.ClientID, &v.Orden, &v.Quantity, &v.Completed); err != nil {
			return nil, err
		}
		visits = append(visits, &v)
	}
	return visits, rows.Err()
}

// SetVisitCompleted toggles the field-operation flag on a visit.
func (db *DB) SetVisitCompleted(visitID int64, completed bool) error {
	res, err := db.Exec(db.Q(`UPDATE visits SET completed=? WHERE id=?`), completed, visitID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
