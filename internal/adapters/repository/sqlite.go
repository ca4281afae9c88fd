package repository

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/okian/gradebook/internal/domain/model"
	"github.com/okian/gradebook/pkg/errs"
	"github.com/okian/gradebook/pkg/logger"
	"github.com/okian/gradebook/pkg/metrics"
)

// busyTimeoutMS bounds how long SQLite waits on a locked database file.
const busyTimeoutMS = 5000

// gradeRow maps the grades table. Column order follows the on-disk layout.
type gradeRow struct {
	ID       int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name     string    `gorm:"column:name;type:text;not null"`
	Grades   FloatList `gorm:"column:grades;type:text;not null"`
	Mean     float64   `gorm:"column:mean;type:real;not null"`
	Weighted float64   `gorm:"column:weighted;type:real;not null"`
	Weights  FloatList `gorm:"column:weights;type:text"`
}

// TableName pins the table name.
func (gradeRow) TableName() string { return "grades" }

func (r gradeRow) toModel() model.GradeRecord {
	return model.GradeRecord{
		ID:       r.ID,
		Name:     r.Name,
		Grades:   []float64(r.Grades),
		Weights:  []float64(r.Weights),
		Mean:     r.Mean,
		Weighted: r.Weighted,
	}
}

// SQLiteStore is a Store backed by a single SQLite file.
type SQLiteStore struct {
	path        string
	db          *gorm.DB
	logger      logger.Logger
	sqlLogLevel gormlogger.LogLevel

	closeOnce sync.Once
	closeErr  error
	closed    atomic.Bool
}

var _ Store = (*SQLiteStore)(nil)

// Open opens (creating if needed) the SQLite database at path, verifies the
// connection and ensures the schema. The returned store owns the handle until
// Close is called.
func Open(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	const op = "repository.open"

	s := &SQLiteStore{
		path:        path,
		sqlLogLevel: gormlogger.Silent,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("repository")
	}

	if strings.TrimSpace(path) == "" {
		return nil, errs.WrapKind(op, ErrStorage, fmt.Errorf("%w: db path", ErrMissingField))
	}

	dsn := fmt.Sprintf("%s?_busy_timeout=%d", path, busyTimeoutMS)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(s.sqlLogLevel),
	})
	if err != nil {
		return nil, errs.WrapKind(op, ErrStorage, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errs.WrapKind(op, ErrStorage, err)
	}
	// One owner, one connection: statements run strictly one after another.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, errs.WrapKind(op, ErrStorage, err)
	}
	s.db = db

	if err := s.EnsureSchema(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	s.logger.Info(ctx, "grade store opened", logger.String("path", path))
	return s, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.path }

// EnsureSchema creates the grades table if it does not exist.
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	const op = "repository.ensure_schema"
	if s.closed.Load() {
		return errs.WrapKind(op, ErrStorage, ErrClosed)
	}
	defer observe("ensure_schema", time.Now())

	if err := s.db.WithContext(ctx).AutoMigrate(&gradeRow{}); err != nil {
		metrics.RecordStoreError("ensure_schema")
		return errs.WrapKind(op, ErrStorage, err)
	}
	return nil
}

// Insert appends rec and returns the id assigned by SQLite.
func (s *SQLiteStore) Insert(ctx context.Context, rec model.GradeRecord) (int64, error) {
	const op = "repository.insert"
	if s.closed.Load() {
		return 0, errs.WrapKind(op, ErrStorage, ErrClosed)
	}
	if err := validate(rec); err != nil {
		metrics.RecordStoreError("insert")
		return 0, errs.WrapKind(op, ErrStorage, err)
	}
	defer observe("insert", time.Now())

	row := gradeRow{
		Name:     strings.TrimSpace(rec.Name),
		Grades:   FloatList(rec.Grades),
		Mean:     rec.Mean,
		Weighted: rec.Weighted,
		Weights:  FloatList(rec.Weights),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		metrics.RecordStoreError("insert")
		return 0, errs.WrapKind(op, ErrStorage, err)
	}
	s.logger.Debug(ctx, "grade record inserted", logger.Int("id", int(row.ID)), logger.String("name", row.Name))
	return row.ID, nil
}

// FetchAllDescending returns every record ordered by id, newest first.
func (s *SQLiteStore) FetchAllDescending(ctx context.Context) ([]model.GradeRecord, error) {
	const op = "repository.fetch_desc"
	if s.closed.Load() {
		return nil, errs.WrapKind(op, ErrStorage, ErrClosed)
	}
	defer observe("fetch_desc", time.Now())

	var rows []gradeRow
	if err := s.db.WithContext(ctx).Order("id DESC").Find(&rows).Error; err != nil {
		metrics.RecordStoreError("fetch_desc")
		return nil, errs.WrapKind(op, ErrStorage, err)
	}
	out := make([]model.GradeRecord, len(rows))
	for i, r := range rows {
		out[i] = r.toModel()
	}
	metrics.UpdateRecordsTotal(len(out))
	return out, nil
}

// FetchAllAscending returns name and weighted mean of every record, oldest first.
func (s *SQLiteStore) FetchAllAscending(ctx context.Context) ([]model.ChartPoint, error) {
	const op = "repository.fetch_asc"
	if s.closed.Load() {
		return nil, errs.WrapKind(op, ErrStorage, ErrClosed)
	}
	defer observe("fetch_asc", time.Now())

	points := []model.ChartPoint{}
	err := s.db.WithContext(ctx).
		Model(&gradeRow{}).
		Select("name", "weighted").
		Order("id ASC").
		Scan(&points).Error
	if err != nil {
		metrics.RecordStoreError("fetch_asc")
		return nil, errs.WrapKind(op, ErrStorage, err)
	}
	return points, nil
}

// Count returns the number of stored records.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	const op = "repository.count"
	if s.closed.Load() {
		return 0, errs.WrapKind(op, ErrStorage, ErrClosed)
	}
	var n int64
	if err := s.db.WithContext(ctx).Model(&gradeRow{}).Count(&n).Error; err != nil {
		return 0, errs.WrapKind(op, ErrStorage, err)
	}
	metrics.UpdateRecordsTotal(int(n))
	return n, nil
}

// Close releases the database handle exactly once.
func (s *SQLiteStore) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		if s.db == nil {
			return
		}
		sqlDB, err := s.db.DB()
		if err != nil {
			s.closeErr = errs.WrapKind("repository.close", ErrStorage, err)
			return
		}
		if err := sqlDB.Close(); err != nil {
			s.closeErr = errs.WrapKind("repository.close", ErrStorage, err)
			return
		}
		s.logger.Info(context.Background(), "grade store closed", logger.String("path", s.path))
	})
	return s.closeErr
}

// validate rejects records that cannot satisfy the NOT NULL columns.
func validate(rec model.GradeRecord) error {
	switch {
	case strings.TrimSpace(rec.Name) == "":
		return fmt.Errorf("%w: name", ErrMissingField)
	case len(rec.Grades) == 0:
		return fmt.Errorf("%w: grades", ErrMissingField)
	case !finite(rec.Mean):
		return fmt.Errorf("%w: mean", ErrMissingField)
	case !finite(rec.Weighted):
		return fmt.Errorf("%w: weighted", ErrMissingField)
	case rec.Weights != nil && len(rec.Weights) != len(rec.Grades):
		return fmt.Errorf("weights: %d values for %d grades", len(rec.Weights), len(rec.Grades))
	}
	for _, g := range rec.Grades {
		if !finite(g) {
			return fmt.Errorf("grades: non-finite value %v", g)
		}
	}
	for _, w := range rec.Weights {
		if !finite(w) {
			return fmt.Errorf("weights: non-finite value %v", w)
		}
	}
	return nil
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }

func observe(op string, start time.Time) {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Microseconds())/1000)
}
