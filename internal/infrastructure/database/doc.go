// Package database provides SQLite storage for the TRÅDFRI bridge.
//
// The bridge stores the DTLS identity and pre-shared key it negotiated with
// each gateway, so the gateway security code is only needed once.
//
// Security Considerations:
//   - All queries use parameterised statements
//   - Database file permissions are set to 0600
//
// Usage:
//
//	db, err := database.Open(ctx, cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if _, err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migrations are forward-only files named YYYYMMDD_HHMMSS_description.up.sql.
package database
