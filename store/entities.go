package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Zone struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Provider is the depot an optimization run delivers from.
type Provider struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	CoordX          float64   `json:"coord_x"`
	CoordY          float64   `json:"coord_y"`
	StorageCost     float64   `json:"storage_cost"`
	StorageLevel    float64   `json:"storage_level"`
	ProductionLevel float64   `json:"production_level"`
	ZoneID          *string   `json:"zone_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type Client struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Address      string    `json:"address"`
	CoordX       float64   `json:"coord_x"`
	CoordY       float64   `json:"coord_y"`
	StorageCost  float64   `json:"storage_cost"`
	StorageLevel float64   `json:"storage_level"`
	MaxLevel     float64   `json:"max_level"`
	MinLevel     float64   `json:"min_level"`
	DemandLevel  float64   `json:"demand_level"`
	ZoneID       *string   `json:"zone_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Vehicle struct {
	ID        string    `json:"id"`
	Plate     string    `json:"plate"`
	Brand     string    `json:"brand"`
	Model     string    `json:"model"`
	Year      int       `json:"year"`
	Capacity  int       `json:"capacity"`
	ZoneID    *string   `json:"zone_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func nullableID(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

func scanNullableID(v sql.NullString) *string {
	if !v.Valid || v.String == "" {
		return nil
	}
	s := v.String
	return &s
}

// --- Zones ---

func (db *DB) CreateZone(z *Zone) error {
	if z.ID == "" {
		z.ID = uuid.New().String()
	}
	_, err := db.Exec(db.Q(`INSERT INTO zones (id, name) VALUES (?, ?)`), z.ID, z.Name)
	if err != nil {
		return fmt.Errorf("create zone: %w", err)
	}
	return nil
}

func (db *DB) GetZone(id string) (*Zone, error) {
	var z Zone
	var createdAt, updatedAt any
	err := db.QueryRow(db.Q(`SELECT id, name, created_at, updated_at FROM zones WHERE id=?`), id).
		Scan(&z.ID, &z.Name, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	z.CreatedAt = parseTime(createdAt)
	z.UpdatedAt = parseTime(updatedAt)
	return &z, nil
}

func (db *DB) ListZones() ([]*Zone, error) {
	rows, err := db.Query(db.Q(`SELECT id, name, created_at, updated_at FROM zones ORDER BY name`))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var zones []*Zone
	for rows.Next() {
		var z Zone
		var createdAt, updatedAt any
		if err := rows.Scan(&z.ID, &z.Name, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		z.CreatedAt = parseTime(createdAt)
		z.UpdatedAt = parseTime(updatedAt)
		zones = append(zones, &z)
	}
	return zones, rows.Err()
}

func (db *DB) UpdateZone(z *Zone) error {
	_, err := db.Exec(db.Q(`UPDATE zones SET name=?, updated_at=datetime('now','localtime') WHERE id=?`), z.Name, z.ID)
	return err
}

func (db *DB) DeleteZone(id string) error {
	_, err := db.Exec(db.Q(`DELETE FROM zones WHERE id=?`), id)
	return err
}

// --- Providers ---

const providerSelectCols = `id, name, coord_x, coord_y, storage_cost, storage_level, production_level, zone_id, created_at, updated_at`

func scanProvider(row interface{ Scan(...any) error }) (*Provider, error) {
	var p Provider
	var zoneID sql.NullString
	var createdAt, updatedAt any
	err := row.Scan(&p.ID, &p.Name, &p.CoordX, &p.CoordY, &p.StorageCost,
		&p.StorageLevel, &p.ProductionLevel, &zoneID, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	p.ZoneID = scanNullableID(zoneID)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

func (db *DB) CreateProvider(p *Provider) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	_, err := db.Exec(db.Q(`INSERT INTO providers (id, name, coord_x, coord_y, storage_cost, storage_level, production_level, zone_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		p.ID, p.Name, p.CoordX, p.CoordY, p.StorageCost, p.StorageLevel, p.ProductionLevel, nullableID(p.ZoneID))
	if err != nil {
		return fmt.Errorf("create provider: %w", err)
	}
	return nil
}

func (db *DB) GetProvider(id string) (*Provider, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s FROM providers WHERE id=?`, providerSelectCols)), id)
	return scanProvider(row)
}

func (db *DB) ListProviders() ([]*Provider, error) {
	rows, err := db.Query(db.Q(fmt.Sprintf(`SELECT %s FROM providers ORDER BY name`, providerSelectCols)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var providers []*Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return providers, rows.Err()
}

func (db *DB) UpdateProvider(p *Provider) error {
	_, err := db.Exec(db.Q(`UPDATE providers SET name=?, coord_x=?, coord_y=?, storage_cost=?, storage_level=?, production_level=?, zone_id=?, updated_at=datetime('now','localtime') WHERE id=?`),
		p.Name, p.CoordX, p.CoordY, p.StorageCost, p.StorageLevel, p.ProductionLevel, nullableID(p.ZoneID), p.ID)
	return err
}

func (db *DB) DeleteProvider(id string) error {
	_, err := db.Exec(db.Q(`DELETE FROM providers WHERE id=?`), id)
	return err
}

// --- Clients ---

const clientSelectCols = `id, name, address, coord_x, coord_y, storage_cost, storage_level, max_level, min_level, demand_level, zone_id, created_at, updated_at`

func scanClient(row interface{ Scan(...any) error }) (*Client, error) {
	var c Client
	var zoneID sql.NullString
	var createdAt, updatedAt any
	err := row.Scan(&c.ID, &c.Name, &c.Address, &c.CoordX, &c.CoordY, &c.StorageCost,
		&c.StorageLevel, &c.MaxLevel, &c.MinLevel, &c.DemandLevel, &zoneID, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	c.ZoneID = scanNullableID(zoneID)
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
	return &c, nil
}

func scanClients(rows *sql.Rows) ([]*Client, error) {
	var clients []*Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (db *DB) CreateClient(c *Client) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	_, err := db.Exec(db.Q(`INSERT INTO clients (id, name, address, coord_x, coord_y, storage_cost, storage_level, max_level, min_level, demand_level, zone_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		c.ID, c.Name, c.Address, c.CoordX, c.CoordY, c.StorageCost, c.StorageLevel,
		c.MaxLevel, c.MinLevel, c.DemandLevel, nullableID(c.ZoneID))
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	return nil
}

func (db *DB) GetClient(id string) (*Client, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s FROM clients WHERE id=?`, clientSelectCols)), id)
	return scanClient(row)
}

// ListClients returns all clients, or only those in the given zone when
// zoneID is non-empty.
func (db *DB) ListClients(zoneID string) ([]*Client, error) {
	var rows *sql.Rows
	var err error
	if zoneID != "" {
		rows, err = db.Query(db.Q(fmt.Sprintf(`SELECT %s FROM clients WHERE zone_id=? ORDER BY name`, clientSelectCols)), zoneID)
	} else {
		rows, err = db.Query(db.Q(fmt.Sprintf(`SELECT %s FROM clients ORDER BY name`, clientSelectCols)))
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanClients(rows)
}

// ListClientsByIDs resolves the given ids, preserving the order of ids.
// Ids that do not resolve are dropped from the result without error;
// callers that need strict resolution compare lengths.
func (db *DB) ListClientsByIDs(ids []string) ([]*Client, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := db.Query(db.Q(fmt.Sprintf(`SELECT %s FROM clients WHERE id IN (%s)`, clientSelectCols, placeholders)), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	clients, err := scanClients(rows)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*Client, len(clients))
	for _, c := range clients {
		byID[c.ID] = c
	}
	ordered := make([]*Client, 0, len(clients))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			ordered = append(ordered, c)
		}
	}
	return ordered, nil
}

func (db *DB) UpdateClient(c *Client) error {
	_, err := db.Exec(db.Q(`UPDATE clients SET name=?, address=?, coord_x=?, coord_y=?, storage_cost=?, storage_level=?, max_level=?, min_level=?, demand_level=?, zone_id=?, updated_at=datetime('now','localtime') WHERE id=?`),
		c.Name, c.Address, c.CoordX, c.CoordY, c.StorageCost, c.StorageLevel,
		c.MaxLevel, c.MinLevel, c.DemandLevel, nullableID(c.ZoneID), c.ID)
	return err
}

func (db *DB) DeleteClient(id string) error {
	_, err := db.Exec(db.Q(`DELETE FROM clients WHERE id=?`), id)
	return err
}

// --- Vehicles ---

const vehicleSelectCols = `id, plate, brand, model, year, capacity, zone_id, created_at, updated_at`

func scanVehicle(row interface{ Scan(...any) error }) (*Vehicle, error) {
	var v Vehicle
	var zoneID sql.NullString
	var createdAt, updatedAt any
	err := row.Scan(&v.ID, &v.Plate, &v.Brand, &v.Model, &v.Year, &v.Capacity, &zoneID, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	v.ZoneID = scanNullableID(zoneID)
	v.CreatedAt = parseTime(createdAt)
	v.UpdatedAt = parseTime(updatedAt)
	return &v, nil
}

func (db *DB) CreateVehicle(v *Vehicle) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	_, err := db.Exec(db.Q(`INSERT INTO vehicles (id, plate, brand, model, year, capacity, zone_id) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		v.ID, v.Plate, v.Brand, v.Model, v.Year, v.Capacity, nullableID(v.ZoneID))
	if err != nil {
		return fmt.Errorf("create vehicle: %w", err)
	}
	return nil
}

func (db *DB) GetVehicle(id string) (*Vehicle, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s FROM vehicles WHERE id=?`, vehicleSelectCols)), id)
	return scanVehicle(row)
}

func (db *DB) ListVehicles() ([]*Vehicle, error) {
	rows, err := db.Query(db.Q(fmt.Sprintf(`SELECT %s FROM vehicles ORDER BY plate`, vehicleSelectCols)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var vehicles []*Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

func (db *DB) UpdateVehicle(v *Vehicle) error {
	_, err := db.Exec(db.Q(`UPDATE vehicles SET plate=?, brand=?, model=?, year=?, capacity=?, zone_id=?, updated_at=datetime('now','localtime') WHERE id=?`),
		v.Plate, v.Brand, v.Model, v.Year, v.Capacity, nullableID(v.ZoneID), v.ID)
	return err
}

func (db *DB) DeleteVehicle(id string) error {
	_, err := db.Exec(db.Q(`DELETE FROM vehicles WHERE id=?`), id)
	return err
}
