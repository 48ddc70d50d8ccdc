package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/stockflow-api/internal/domain"
)

// Códigos SQLSTATE que el adaptador traduce a errores de dominio.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeSerialization       = "40001"
	codeDeadlock            = "40P01"
	codeLockNotAvailable    = "55P03"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	if code := pgCode(err); code != "" {
		return code == codeUniqueViolation
	}
	return strings.Contains(err.Error(), codeUniqueViolation)
}

// isRetryable: lock_timeout, deadlock o fallo de serialización.
func isRetryable(err error) bool {
	switch pgCode(err) {
	case codeSerialization, codeDeadlock, codeLockNotAvailable:
		return true
	}
	return false
}

// mapWriteError traduce errores de INSERT/UPDATE. op describe la operación para el wrap.
func mapWriteError(op string, err error) error {
	switch pgCode(err) {
	case codeUniqueViolation:
		return fmt.Errorf("%s: %w", op, domain.ErrDuplicate)
	case codeForeignKeyViolation:
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	case codeCheckViolation:
		return fmt.Errorf("%s: %w", op, domain.ErrConflict)
	}
	if isRetryable(err) {
		return domain.NewTransactionAbortError(err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// mapDeleteError: en DELETE una FK violada significa que la fila sigue referenciada.
func mapDeleteError(op string, err error) error {
	if pgCode(err) == codeForeignKeyViolation {
		return fmt.Errorf("%s: %w", op, domain.ErrConflict)
	}
	if isRetryable(err) {
		return domain.NewTransactionAbortError(err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// mapReadError: lecturas con bloqueo pueden abortar por lock_timeout o deadlock.
func mapReadError(op string, err error) error {
	if isRetryable(err) {
		return domain.NewTransactionAbortError(err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
