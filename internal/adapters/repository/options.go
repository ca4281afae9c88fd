package repository

import (
	gormlogger "gorm.io/gorm/logger"

	"github.com/okian/gradebook/pkg/logger"
)

// Option applies a configuration option to the SQLiteStore.
type Option func(*SQLiteStore)

// WithLogger sets the logger used for store lifecycle messages.
func WithLogger(l logger.Logger) Option {
	return func(s *SQLiteStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSQLLogging turns gorm statement logging on or off.
func WithSQLLogging(enabled bool) Option {
	return func(s *SQLiteStore) {
		if enabled {
			s.sqlLogLevel = gormlogger.Info
		} else {
			s.sqlLogLevel = gormlogger.Silent
		}
	}
}
