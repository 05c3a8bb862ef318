package migration

import (
	"database/sql"

	"github.com/pressly/goose"
)

func init() {
	goose.AddMigration(Up00002, Down00002)
}

//Up00002 indexes the columns used by searches.
func Up00002(tx *sql.Tx) error {
	_, err := tx.Exec(`
	CREATE INDEX idx_detections_acquired
	ON public.detections USING btree
	(acquired);

	CREATE INDEX idx_detections_extent
	ON public.detections USING btree
	(min_x, max_x, min_y, max_y);
	`)
	return err
}

//Down00002 drops the search indexes.
func Down00002(tx *sql.Tx) error {
	_, err := tx.Exec(`
	DROP INDEX IF EXISTS public.idx_detections_acquired;
	DROP INDEX IF EXISTS public.idx_detections_extent;
	`)
	return err
}
