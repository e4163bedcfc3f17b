// Package sqlite открывает встроенную SQLite базу (modernc.org/sqlite, без cgo)
// и применяет к ней миграции golang-migrate из embed.FS.
//
//	db, err := sqlite.NewDB(ctx, "var/crontab.sqlite")
//	if err != nil {
//		return err
//	}
//	defer db.Close()
//
//	version, err := sqlite.ApplyMigrations("var/crontab.sqlite", migrations.FS, "sqlite")
//
// NewReadOnlyDB используется демоном: он только читает таблицу расписания.
// TestDB создает базу во временной директории теста.
package sqlite
