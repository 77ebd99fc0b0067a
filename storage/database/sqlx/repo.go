package sqlxrepos

import (
	"database/sql"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

// likeEscaper escapes LIKE wildcards; queries using it declare ESCAPE '\'.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func getExec(db core.DBExecutor, svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return db
}

// trapNoRowsErr maps sql "no rows" err to notFound
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// trapConstraintErr maps sqlite constraint violations to *core.ConstraintError.
// domainErr, when set, replaces the driver error for unique violations.
func trapConstraintErr(err error, field string, domainErr error, msg string) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			cErr := &core.ConstraintError{Kind: core.ConstraintUnique, Field: field, Err: err}
			if domainErr != nil {
				cErr.Err = domainErr
			}
			return cErr
		case sqlite3.ErrConstraintForeignKey:
			return &core.ConstraintError{Kind: core.ConstraintForeignKey, Field: field, Err: err}
		}
	}
	return errors.Wrap(err, msg)
}

// orderBy maps API orderings onto whitelisted columns; unknown fields are dropped.
func orderBy(ordering []core.DBOrdering, columns map[string]string, fallback ...string) []string {
	orderList := make([]string, 0, len(ordering)+len(fallback))
	for _, ord := range ordering {
		col, ok := columns[ord.Field]
		if !ok {
			continue
		}
		orderList = append(orderList, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
	}
	if len(orderList) == 0 {
		orderList = append(orderList, fallback...)
	}
	return orderList
}

// likeAny matches val (case-insensitively for ASCII) against any of columns.
func likeAny(val string, columns ...string) sq.Or {
	pattern := "%" + likeEscaper.Replace(val) + "%"
	or := make(sq.Or, 0, len(columns))
	for _, col := range columns {
		or = append(or, sq.Expr(col+` LIKE ? ESCAPE '\'`, pattern))
	}
	return or
}
