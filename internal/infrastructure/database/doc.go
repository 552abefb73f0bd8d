// Package database provides SQLite connection management and schema
// migrations for the Sounder control plane.
//
// The tenant, user, and device stores all share the single SQLite database
// opened here. Migrations are embedded into the binary by the migrations
// package and applied on startup.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: "./data/sounder.db", WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
