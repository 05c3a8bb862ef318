package migration

import (
	"database/sql"

	"github.com/pressly/goose"
)

func init() {
	goose.AddMigration(Up00001, Down00001)
}

//Up00001 creates the detections table.
func Up00001(tx *sql.Tx) error {
	_, err := tx.Exec(`
	CREATE TABLE public.detections
	(
		scene_id character varying(256) NOT NULL,
		acquired timestamp with time zone NOT NULL,
		sensor character varying(64) NOT NULL DEFAULT '',
		polarisation character varying(8) NOT NULL DEFAULT '',
		threshold double precision,
		fallback character varying(16) NOT NULL DEFAULT '',
		water_pixels integer NOT NULL DEFAULT 0,
		valid_pixels integer NOT NULL DEFAULT 0,
		water_area double precision NOT NULL DEFAULT 0,
		bounds_json text NOT NULL,
		extent_json text NOT NULL,
		min_x double precision NOT NULL,
		min_y double precision NOT NULL,
		max_x double precision NOT NULL,
		max_y double precision NOT NULL,
		created_at timestamp with time zone NOT NULL DEFAULT now(),
		CONSTRAINT detections_pkey PRIMARY KEY (scene_id)
	)
	WITH (
		OIDS = FALSE
	);
	`)
	return err
}

//Down00001 drops the detections table.
func Down00001(tx *sql.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS public.detections;`)
	return err
}
