package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ashwinyue/tool-portal/internal/config"
	"github.com/ashwinyue/tool-portal/internal/model"
)

// ErrUnsupportedURL 无法识别的数据库连接串
var ErrUnsupportedURL = errors.New("unsupported database url")

// Dialect 数据库类型
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// DB 数据库封装
type DB struct {
	*gorm.DB
	dialect Dialect
}

// New 创建数据库连接
// 连接失败或 ping 超时直接返回错误，由调用方决定是否终止启动
func New(cfg *config.DatabaseConfig, log *zap.Logger) (*DB, error) {
	if log == nil {
		log = zap.NewNop()
	}

	dialect, dialector, err := Dialector(cfg.URL)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLogger(log),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := sqlDBOrClose(db)
	if err != nil {
		return nil, err
	}

	// 连接池配置
	if dialect == DialectSQLite {
		// SQLite 只允许单写连接，内存库在连接关闭后即丢失
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)
	}

	// 健康检查
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db, dialect: dialect}, nil
}

// sqlDBOrClose 取出底层 *sql.DB，失败时关闭已打开的连接池
func sqlDBOrClose(db *gorm.DB) (*sql.DB, error) {
	sqlDB, err := db.DB()
	if err != nil {
		if closer, ok := db.ConnPool.(io.Closer); ok {
			_ = closer.Close()
		}
		return nil, fmt.Errorf("failed to get database: %w", err)
	}
	return sqlDB, nil
}

// Dialector 根据连接串选择驱动
// 支持 postgres://、postgresql://（含 postgresql+driver://）以及 sqlite:///path
func Dialector(url string) (Dialect, gorm.Dialector, error) {
	url = strings.TrimSpace(url)
	scheme, rest, ok := strings.Cut(url, "://")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing scheme", ErrUnsupportedURL)
	}

	// SQLAlchemy 风格的 "postgresql+psycopg2" 只保留方言部分
	if base, _, found := strings.Cut(scheme, "+"); found {
		scheme = base
	}

	switch strings.ToLower(scheme) {
	case "postgres", "postgresql":
		return DialectPostgres, postgres.Open("postgres://" + rest), nil
	case "sqlite", "sqlite3":
		// sqlite:///relative.db -> relative.db，sqlite:////abs.db -> /abs.db
		path := strings.TrimPrefix(rest, "/")
		if path == "" {
			return "", nil, fmt.Errorf("%w: empty sqlite path", ErrUnsupportedURL)
		}
		return DialectSQLite, sqlite.Open(path), nil
	default:
		return "", nil, fmt.Errorf("%w: scheme %q", ErrUnsupportedURL, scheme)
	}
}

// Dialect 返回当前数据库类型
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// EnsureSchema 确保表结构存在，可在每次启动时重复调用
// 表已存在时不做任何变更，已有表结构与索引原样保留
func (db *DB) EnsureSchema() error {
	migrator := db.Migrator()
	for _, m := range model.AllModels {
		if migrator.HasTable(m) {
			continue
		}
		if err := migrator.CreateTable(m); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// Close 关闭数据库连接
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping 检查数据库连接
func (db *DB) Ping(ctx context.Context) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// newGormLogger 将 gorm 日志桥接到 zap，只记录慢查询与错误
func newGormLogger(log *zap.Logger) gormlogger.Interface {
	return gormlogger.New(
		zap.NewStdLog(log.Named("gorm")),
		gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}
