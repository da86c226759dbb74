package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ms-ordering/internal/config"
	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// Connect opens Postgres through lib/pq, retrying the ping a few times while the database starts.
func Connect(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*bun.DB, error) {
	retries := cfg.ConnectRetry
	if retries <= 0 {
		retries = 1
	}

	var sqldb *sql.DB
	var err error

	for i := 0; i < retries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, retries))
		sqldb, err = sql.Open("postgres", cfg.DSN)
		if err != nil {
			log.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.PingContext(ctx)
		if err == nil {
			break
		}

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		sqldb.Close()
		if i < retries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("postgres unreachable after %d attempts: %w", retries, err)
	}

	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)

	log.Info("DATABASE", "PostgreSQL connection successful")
	return bun.NewDB(sqldb, pgdialect.New()), nil
}

// OpenSQLite opens a sqlite database. ":memory:" is pinned to one connection
// so every query sees the same in-memory schema.
func OpenSQLite(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}
	sqldb.SetMaxOpenConns(1)
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// Models lists every table in creation order.
func Models() []interface{} {
	return []interface{}{
		(*models.Restaurant)(nil),
		(*models.StaffProfile)(nil),
		(*models.Category)(nil),
		(*models.Subcategory)(nil),
		(*models.MenuItem)(nil),
		(*models.PizzaSize)(nil),
		(*models.Accompaniment)(nil),
		(*models.Promotion)(nil),
		(*models.ServiceHours)(nil),
		(*models.Table)(nil),
		(*models.Order)(nil),
		(*models.OrderItem)(nil),
		(*models.ServerCall)(nil),
		(*models.Rating)(nil),
	}
}

// CreateSchema creates missing tables from the bun models.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	for _, m := range Models() {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table for %T: %w", m, err)
		}
	}
	return nil
}

func DropSchema(ctx context.Context, db bun.IDB) error {
	list := Models()
	for i := len(list) - 1; i >= 0; i-- {
		if _, err := db.NewDropTable().Model(list[i]).IfExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to drop table for %T: %w", list[i], err)
		}
	}
	return nil
}
