package main

import (
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/lib/pq"

	"github.com/raviraj-dave96/Compoundflood-road-damage/util"
)

//getDbConnection opens a new database connection.
func getDbConnection(ctx util.LogContext) (*sql.DB, error) {
	connStr, err := util.GetDatabaseURL(ctx)
	if err != nil {
		return nil, err
	}

	dbURI, err := url.Parse(connStr)
	if err != nil {
		return nil, err
	}
	util.LogInfo(ctx, fmt.Sprintf("Creating database connection at: `%s`", dbURI.Redacted()))
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return db, err
}

var getDbConnectionFunc = getDbConnection
