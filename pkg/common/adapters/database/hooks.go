package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"gorm.io/gorm"

	"github.com/bitechdev/BreadSpec/pkg/logger"
	"github.com/bitechdev/BreadSpec/pkg/metrics"
)

// bunQueryHook feeds db_query metrics. sql.ErrNoRows counts as success.
type bunQueryHook struct {
	debug bool
}

func (h *bunQueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *bunQueryHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	duration := time.Since(event.StartTime)
	err := event.Err
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
	}

	table := ""
	if event.IQuery != nil {
		table = event.IQuery.GetTableName()
	}
	metrics.GetProvider().RecordDBQuery(strings.ToLower(event.Operation()), table, duration, err)

	switch {
	case err != nil:
		logger.Error("SQL query failed [%s]: %s: %v", duration, event.Query, err)
	case h.debug:
		logger.Debug("SQL query [%s]: %s", duration, event.Query)
	}
}

const gormStartKey = "breadspec:started_at"

// registerGormMetrics adds before/after callbacks around every gorm
// processor. Raw Exec and Scan go through the raw and row processors.
func registerGormMetrics(db *gorm.DB) error {
	start := func(tx *gorm.DB) {
		tx.InstanceSet(gormStartKey, time.Now())
	}
	finish := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			started, ok := tx.InstanceGet(gormStartKey)
			if !ok {
				return
			}
			err := tx.Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				err = nil
			}
			metrics.GetProvider().RecordDBQuery(operation, tx.Statement.Table, time.Since(started.(time.Time)), err)
		}
	}

	cb := db.Callback()
	return errors.Join(
		cb.Query().Before("*").Register("breadspec:before_select", start),
		cb.Query().After("*").Register("breadspec:after_select", finish("select")),
		cb.Create().Before("*").Register("breadspec:before_insert", start),
		cb.Create().After("*").Register("breadspec:after_insert", finish("insert")),
		cb.Update().Before("*").Register("breadspec:before_update", start),
		cb.Update().After("*").Register("breadspec:after_update", finish("update")),
		cb.Delete().Before("*").Register("breadspec:before_delete", start),
		cb.Delete().After("*").Register("breadspec:after_delete", finish("delete")),
		cb.Raw().Before("*").Register("breadspec:before_raw", start),
		cb.Raw().After("*").Register("breadspec:after_raw", finish("raw")),
		cb.Row().Before("*").Register("breadspec:before_row", start),
		cb.Row().After("*").Register("breadspec:after_row", finish("row")),
	)
}
