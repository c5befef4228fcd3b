package catalog

const schema = `
CREATE TABLE IF NOT EXISTS PACKAGE (
    NAME TEXT PRIMARY KEY,
    TITLE TEXT NOT NULL,
    URL TEXT,
    ICON TEXT,
    DESCRIPTION TEXT,
    LICENSE TEXT,
    FULLTEXT TEXT,
    STATUS INTEGER NOT NULL DEFAULT 0,
    SHORT_NAME TEXT,
    REPOSITORY INTEGER,
    CATEGORY0 INTEGER,
    CATEGORY1 INTEGER,
    CATEGORY2 INTEGER,
    CATEGORY3 INTEGER,
    CATEGORY4 INTEGER
);

CREATE INDEX IF NOT EXISTS IDX_PACKAGE_SHORT_NAME ON PACKAGE(SHORT_NAME);

CREATE TABLE IF NOT EXISTS PACKAGE_VERSION (
    NAME TEXT NOT NULL,
    PACKAGE TEXT NOT NULL,
    URL TEXT,
    CONTENT BLOB,
    MSIGUID TEXT,
    DETECT_FILE_COUNT INTEGER NOT NULL DEFAULT 0
);

CREATE UNIQUE INDEX IF NOT EXISTS IDX_PV_PACKAGE_NAME ON PACKAGE_VERSION(PACKAGE, NAME);
CREATE INDEX IF NOT EXISTS IDX_PV_MSIGUID ON PACKAGE_VERSION(MSIGUID);
CREATE INDEX IF NOT EXISTS IDX_PV_DETECT_FILE_COUNT ON PACKAGE_VERSION(DETECT_FILE_COUNT);

CREATE TABLE IF NOT EXISTS LICENSE (
    NAME TEXT PRIMARY KEY,
    TITLE TEXT,
    DESCRIPTION TEXT,
    URL TEXT
);

CREATE TABLE IF NOT EXISTS CATEGORY (
    ID INTEGER PRIMARY KEY AUTOINCREMENT,
    NAME TEXT NOT NULL,
    PARENT INTEGER NOT NULL DEFAULT 0,
    LEVEL INTEGER NOT NULL DEFAULT 0
);

CREATE UNIQUE INDEX IF NOT EXISTS IDX_CATEGORY_TRIPLE ON CATEGORY(PARENT, LEVEL, NAME);

CREATE TABLE IF NOT EXISTS REPOSITORY (
    ID INTEGER PRIMARY KEY AUTOINCREMENT,
    URL TEXT NOT NULL,
    SHA1 TEXT
);

CREATE TABLE IF NOT EXISTS LINK (
    PACKAGE TEXT NOT NULL,
    INDEX_ INTEGER NOT NULL,
    REL TEXT NOT NULL,
    HREF TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS IDX_LINK_PACKAGE ON LINK(PACKAGE);
`
