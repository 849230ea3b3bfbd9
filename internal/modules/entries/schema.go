package entries

// Schema creates the cash_entries table. Amounts are stored as decimal
// strings; aggregation happens in Go so money math stays exact.
const Schema = `
CREATE TABLE IF NOT EXISTS cash_entries (
    id INTEGER PRIMARY KEY,
    amount TEXT NOT NULL CHECK (CAST(amount AS REAL) > 0),
    currency_code TEXT NOT NULL CHECK (currency_code IN ('USD', 'RUB', 'UZS', 'KGS', 'EUR')),
    flow_direction TEXT NOT NULL CHECK (flow_direction IN ('INFLOW', 'OUTFLOW')),
    client_name TEXT NOT NULL,
    note TEXT,
    created_by_telegram_id INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cash_entries_currency_date ON cash_entries(currency_code, created_at);
CREATE INDEX IF NOT EXISTS idx_cash_entries_client ON cash_entries(client_name, currency_code, created_at);
CREATE INDEX IF NOT EXISTS idx_cash_entries_creator ON cash_entries(created_by_telegram_id, created_at);
`
