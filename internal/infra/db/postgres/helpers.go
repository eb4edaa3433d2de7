package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/bryanwahyu/finsight/internal/domain/errs"
)

// dbErr translates driver failures into the domain error taxonomy.
func dbErr(op, entity string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return errs.NotFound(fmt.Sprintf("%s not found", entity))
	}
	return errs.Database(fmt.Sprintf("%s %s failed", entity, op), err)
}
