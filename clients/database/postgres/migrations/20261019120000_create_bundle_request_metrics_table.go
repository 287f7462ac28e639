package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS bundle_request_metrics (
				id bigserial PRIMARY KEY,
				bundle_id varchar NOT NULL,
				hostname varchar NOT NULL,
				request_ip varchar NOT NULL,
				user_agent varchar,
				referer varchar,
				origin varchar,
				item_count bigint NOT NULL,
				failed_item_count bigint NOT NULL,
				response_latency_milliseconds bigint NOT NULL,
				request_time timestamptz NOT NULL
			);
			CREATE INDEX IF NOT EXISTS bundle_request_metrics_request_time_idx
				ON bundle_request_metrics (request_time);
		`)
		return err
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS bundle_request_metrics;`)
		return err
	})
}
