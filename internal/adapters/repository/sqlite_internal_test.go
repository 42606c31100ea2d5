package repository

import (
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSQLiteConnectionSettings(t *testing.T) {
	Convey("Given a freshly opened SQLite store", t, func() {
		s, err := OpenSQLite(filepath.Join(t.TempDir(), "jass.db"))
		So(err, ShouldBeNil)
		defer s.Close()

		Convey("Then the connection runs in WAL mode with a busy timeout", func() {
			var mode string
			So(s.sqlDB.QueryRow(`PRAGMA journal_mode`).Scan(&mode), ShouldBeNil)
			So(mode, ShouldEqual, "wal")

			var busy int
			So(s.sqlDB.QueryRow(`PRAGMA busy_timeout`).Scan(&busy), ShouldBeNil)
			So(busy, ShouldEqual, 5000)

			var fk int
			So(s.sqlDB.QueryRow(`PRAGMA foreign_keys`).Scan(&fk), ShouldBeNil)
			So(fk, ShouldEqual, 1)

			var sync int
			So(s.sqlDB.QueryRow(`PRAGMA synchronous`).Scan(&sync), ShouldBeNil)
			So(sync, ShouldEqual, 1)
		})

		Convey("Then the pool holds a single connection", func() {
			So(s.sqlDB.Stats().MaxOpenConnections, ShouldEqual, 1)
		})
	})
}
