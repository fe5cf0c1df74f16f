package repository

import (
	"database/sql"
	"fmt"
)

// expectAffected возвращает notFound, если запрос не затронул ни одной строки.
func expectAffected(result sql.Result, notFound error, op string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected %w", op, err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}
