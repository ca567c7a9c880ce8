package index

const schema = `
CREATE TABLE IF NOT EXISTS writings (
    id     INTEGER PRIMARY KEY,
    ref_id TEXT NOT NULL UNIQUE,
    type   TEXT NOT NULL,
    title  TEXT NOT NULL,
    text   TEXT NOT NULL,
    digest TEXT NOT NULL
);

-- FTS5 over title + text, diacritics folded by the tokenizer
CREATE VIRTUAL TABLE IF NOT EXISTS writings_fts USING fts5(
    ref_id UNINDEXED,
    title,
    text,
    content='writings',
    content_rowid='id',
    tokenize='unicode61 remove_diacritics 2'
);

CREATE TABLE IF NOT EXISTS index_meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`
