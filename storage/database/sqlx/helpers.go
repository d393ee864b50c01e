// Package sqlxrepos implements the core repositories on PostgreSQL via sqlx.
package sqlxrepos

import (
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/unigate/unigate/core"
)

// wrapErr translates driver errors into the core error taxonomy so that the
// services (and ultimately the API error handler) never see pq internals.
func wrapErr(err error, what string) error {
	if err == nil {
		return nil
	}
	cause := errors.Cause(err)
	if cause == sql.ErrNoRows {
		return core.NotFoundError(what + " not found")
	}
	if pqErr, ok := cause.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505": // unique_violation
			return core.ConflictError(what+" already exists", err)
		case "23503", "23514": // foreign_key_violation, check_violation
			return core.NewError(core.KindValidation, what+" references a missing or invalid row", err)
		case "42501": // insufficient_privilege
			return core.PermissionError("permission denied", err)
		case "08000", "08003", "08006", "57P01": // connection failures
			return core.UnavailableError("database unavailable", err)
		}
	}
	return errors.Wrap(err, what)
}

// orderBy renders an ORDER BY clause from the requested ordering, falling
// back to the given default. The ordering fields come straight from the
// query string; only names present in the resource's column map make it
// into SQL, anything else is dropped.
func orderBy(ordering []core.DBOrdering, columns map[string]string, def string) string {
	parts := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		col, ok := columns[ord.Field]
		if !ok {
			continue
		}
		parts = append(parts, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
	}
	if len(parts) == 0 {
		return " ORDER BY " + def
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func toJSON(m map[string]interface{}) null.JSON {
	if m == nil {
		return null.JSON{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return null.JSON{}
	}
	return null.JSONFrom(b)
}

func fromJSON(j null.JSON) map[string]interface{} {
	if !j.Valid {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(j.JSON, &m); err != nil {
		return nil
	}
	return m
}

// itoa shortens positional-placeholder building in dynamic WHERE clauses.
func itoa(n int) string { return strconv.Itoa(n) }

func nullStr(s string) null.String {
	if s == "" {
		return null.String{}
	}
	return null.StringFrom(s)
}

func nullTime(t time.Time) null.Time {
	if t.IsZero() {
		return null.Time{}
	}
	return null.TimeFrom(t)
}
