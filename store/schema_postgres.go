package store

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS zones (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL UNIQUE,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS providers (
    id               TEXT PRIMARY KEY,
    name             TEXT NOT NULL,
    coord_x          DOUBLE PRECISION NOT NULL DEFAULT 0,
    coord_y          DOUBLE PRECISION NOT NULL DEFAULT 0,
    storage_cost     DOUBLE PRECISION NOT NULL DEFAULT 0,
    storage_level    DOUBLE PRECISION NOT NULL DEFAULT 0,
    production_level DOUBLE PRECISION NOT NULL DEFAULT 0,
    zone_id          TEXT REFERENCES zones(id),
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_providers_zone ON providers(zone_id);

CREATE TABLE IF NOT EXISTS clients (
    id            TEXT PRIMARY KEY,
    name          TEXT NOT NULL,
    address       TEXT NOT NULL DEFAULT '',
    coord_x       DOUBLE PRECISION NOT NULL DEFAULT 0,
    coord_y       DOUBLE PRECISION NOT NULL DEFAULT 0,
    storage_cost  DOUBLE PRECISION NOT NULL DEFAULT 0,
    storage_level DOUBLE PRECISION NOT NULL DEFAULT 0,
    max_level     DOUBLE PRECISION NOT NULL DEFAULT 0,
    min_level     DOUBLE PRECISION NOT NULL DEFAULT 0,
    demand_level  DOUBLE PRECISION NOT NULL DEFAULT 0,
    zone_id       TEXT REFERENCES zones(id),
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_clients_zone ON clients(zone_id);

CREATE TABLE IF NOT EXISTS vehicles (
    id         TEXT PRIMARY KEY,
    plate      TEXT NOT NULL UNIQUE,
    brand      TEXT NOT NULL DEFAULT '',
    model      TEXT NOT NULL DEFAULT '',
    year       INTEGER NOT NULL DEFAULT 0,
    capacity   INTEGER NOT NULL DEFAULT 0,
    zone_id    TEXT REFERENCES zones(id),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS jobs (
    id             TEXT PRIMARY KEY,
    zone_id        TEXT REFERENCES zones(id),
    provider_id    TEXT NOT NULL REFERENCES providers(id),
    vehicle_id     TEXT NOT NULL REFERENCES vehicles(id),
    horizon_length INTEGER NOT NULL,
    state          TEXT NOT NULL DEFAULT 'pending',
    error_detail   TEXT NOT NULL DEFAULT '',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_jobs_state ON jobs(state);

CREATE TABLE IF NOT EXISTS job_clients (
    job_id    TEXT NOT NULL REFERENCES jobs(id),
    client_id TEXT NOT NULL REFERENCES clients(id),
    position  INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (job_id, client_id)
);

CREATE TABLE IF NOT EXISTS job_history (
    id         BIGSERIAL PRIMARY KEY,
    job_id     TEXT NOT NULL REFERENCES jobs(id),
    state      TEXT NOT NULL,
    detail     TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_job_history_job ON job_history(job_id);

CREATE TABLE IF NOT EXISTS solutions (
    id         TEXT PRIMARY KEY,
    job_id     TEXT NOT NULL REFERENCES jobs(id),
    cost       DOUBLE PRECISION NOT NULL,
    policy     TEXT NOT NULL DEFAULT 'ML',
    driver     TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_solutions_job ON solutions(job_id);

CREATE TABLE IF NOT EXISTS routes (
    id          BIGSERIAL PRIMARY KEY,
    solution_id TEXT NOT NULL REFERENCES solutions(id),
    orden       INTEGER NOT NULL,
    cost        DOUBLE PRECISION NOT NULL DEFAULT 0,
    UNIQUE (solution_id, orden)
);

CREATE TABLE IF NOT EXISTS visits (
    id        BIGSERIAL PRIMARY KEY,
    route_id  BIGINT NOT NULL REFERENCES routes(id),
    client_id TEXT NOT NULL REFERENCES clients(id),
    orden     INTEGER NOT NULL,
    quantity  INTEGER NOT NULL DEFAULT 0,
    completed BOOLEAN NOT NULL DEFAULT FALSE,
    UNIQUE (route_id, orden)
);
CREATE INDEX IF NOT EXISTS idx_visits_route ON visits(route_id);

CREATE TABLE IF NOT EXISTS admin_users (
    id            BIGSERIAL PRIMARY KEY,
    username      TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS audit_log (
    id          BIGSERIAL PRIMARY KEY,
    entity_type TEXT NOT NULL,
    entity_id   TEXT NOT NULL DEFAULT '',
    action      TEXT NOT NULL,
    old_value   TEXT NOT NULL DEFAULT '',
    new_value   TEXT NOT NULL DEFAULT '',
    actor       TEXT NOT NULL DEFAULT 'system',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_audit_entity ON audit_log(entity_type, entity_id);

CREATE TABLE IF NOT EXISTS outbox (
    id         BIGSERIAL PRIMARY KEY,
    topic      TEXT NOT NULL,
    payload    BYTEA NOT NULL,
    msg_type   TEXT NOT NULL DEFAULT '',
    user_id    TEXT NOT NULL DEFAULT '',
    retries    INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    sent_at    TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox(sent_at) WHERE sent_at IS NULL;
`
