package errors

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestDumpCapturesPgxDetails(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "ux_coupons_code_lower", TableName: "coupons", Message: "duplicate key value"}
	err := Wrap(CodeConflict, fmt.Errorf("insert coupon: %w", pgErr), "coupon code already exists")

	d := Dump(err)
	if d.Code != CodeConflict {
		t.Fatalf("expected conflict code, got %s", d.Code)
	}
	if d.PGCode != "23505" || d.PGConstraint != "ux_coupons_code_lower" || d.PGTable != "coupons" {
		t.Fatalf("unexpected pg details %+v", d)
	}
	if len(d.Chain) != 3 {
		t.Fatalf("expected 3 chain entries, got %d", len(d.Chain))
	}
}

func TestSQLStateFromLibPQ(t *testing.T) {
	err := fmt.Errorf("delete offer: %w", &pq.Error{Code: "23503", Constraint: "orders_offer_id_fkey"})
	if got := SQLState(err); got != "23503" {
		t.Fatalf("expected 23503, got %q", got)
	}
	if got := Constraint(err); got != "orders_offer_id_fkey" {
		t.Fatalf("unexpected constraint %q", got)
	}
	if SQLState(fmt.Errorf("plain")) != "" {
		t.Fatalf("expected empty sqlstate for plain errors")
	}
}
