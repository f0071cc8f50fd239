// Package db manages the PostgreSQL connection pool behind the activity
// log store.
//
// Connect builds a pgxpool with pool limits from Config and retries the
// initial ping with fibonacci backoff. Migrate applies embedded goose
// migrations on startup:
//
//	pool, err := db.Connect(ctx, cfg.Database)
//	if err != nil {
//		return err
//	}
//	if err := db.Migrate(ctx, pool, migrations.FS, log); err != nil {
//		return err
//	}
package db
