package currencies

// Schema creates the currencies table and seeds the supported set.
const Schema = `
CREATE TABLE IF NOT EXISTS currencies (
    id INTEGER PRIMARY KEY,
    code TEXT UNIQUE NOT NULL,
    name TEXT UNIQUE NOT NULL
);

INSERT OR IGNORE INTO currencies (code, name) VALUES
    ('USD', 'US Dollar'),
    ('RUB', 'Russian Ruble'),
    ('UZS', 'Uzbek Som'),
    ('KGS', 'Kyrgyz Som'),
    ('EUR', 'Euro');
`
