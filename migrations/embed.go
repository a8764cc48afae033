package migrations

import (
	"embed"
	"io/fs"
)

//go:embed sqlite/*.sql postgres/*.sql
var Files embed.FS

// GetFS returns the migrations for a database driver ("sqlite" or
// "postgres")
func GetFS(driver string) (fs.FS, error) {
	switch driver {
	case "sqlite", "sqlite3":
		return fs.Sub(Files, "sqlite")
	case "postgres":
		return fs.Sub(Files, "postgres")
	default:
		return nil, fs.ErrNotExist
	}
}
