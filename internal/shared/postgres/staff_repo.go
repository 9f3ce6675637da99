package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"comanda/internal/domain/staff"
	"comanda/internal/ports"
)

// StaffRepo implements the staff directory lookup the workflow consumes.
type StaffRepo struct{}

var _ ports.StaffDirectory = (*StaffRepo)(nil)

// NewStaffRepo constructs a new StaffRepo.
func NewStaffRepo() *StaffRepo {
	return &StaffRepo{}
}

// RoleOf resolves a staff id to its role label.
func (r *StaffRepo) RoleOf(ctx context.Context, staffID int64) (staff.Role, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return "", err
	}

	var role string
	err = tx.QueryRow(ctx, `
		SELECT role
		FROM staff
		WHERE id = $1
	`, staffID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ports.ErrStaffNotFound
	}
	if err != nil {
		return "", err
	}

	return staff.Role(strings.ToLower(role)), nil
}
