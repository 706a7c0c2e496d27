package gtfsdb

import (
	"database/sql"
	"log"
)

func createTable(tx *sql.Tx, name, ddl string) {
	if _, err := tx.Exec(ddl); err != nil {
		log.Fatalf("error creating %s table: %v", name, err)
	}
}
