package transactions

// Schema creates the transactions table. Amounts and rates are stored as
// decimal strings.
const Schema = `
CREATE TABLE IF NOT EXISTS transactions (
    id INTEGER PRIMARY KEY,
    from_currency_id INTEGER NOT NULL REFERENCES currencies(id),
    to_currency_id INTEGER NOT NULL REFERENCES currencies(id),
    from_amount TEXT NOT NULL CHECK (CAST(from_amount AS REAL) > 0),
    to_amount TEXT NOT NULL CHECK (CAST(to_amount AS REAL) > 0),
    rate TEXT NOT NULL CHECK (CAST(rate AS REAL) > 0),
    client_id INTEGER REFERENCES clients(id),
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_created ON transactions(created_at);
CREATE INDEX IF NOT EXISTS idx_transactions_pair ON transactions(from_currency_id, to_currency_id, created_at);
`
