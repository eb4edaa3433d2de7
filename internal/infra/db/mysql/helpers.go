package mysql

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/bryanwahyu/finsight/internal/domain/errs"
)

// dbErr translates driver failures into the domain error taxonomy.
// sql.ErrNoRows jadi not-found, sisanya database error.
func dbErr(op, entity string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return errs.NotFound(fmt.Sprintf("%s not found", entity))
	}
	return errs.Database(fmt.Sprintf("%s %s failed", entity, op), err)
}
