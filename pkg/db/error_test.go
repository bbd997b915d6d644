package db

import (
	"errors"
	"testing"

	"gorm.io/gorm"
)

func TestIsDuplicateKeyErr(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm translated", gorm.ErrDuplicatedKey, true},
		{"postgres", errors.New(`ERROR: duplicate key value violates unique constraint "ux_credit_entries_ext_ref" (SQLSTATE 23505)`), true},
		{"mysql", errors.New("Error 1062 (23000): Duplicate entry 'evt_1' for key 'ux_credit_entries_ext_ref'"), true},
		{"sqlite", errors.New("constraint failed: UNIQUE constraint failed: credit_entries.ext_ref (2067)"), true},
		{"unrelated", errors.New("connection refused"), false},
	}
	for _, tc := range cases {
		if got := IsDuplicateKeyErr(tc.err); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestIsRetryableErr(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"pg serialization", errors.New("ERROR: could not serialize access due to concurrent update (SQLSTATE 40001)"), true},
		{"pg deadlock", errors.New("ERROR: deadlock detected (SQLSTATE 40P01)"), true},
		{"mysql deadlock", errors.New("Error 1213 (40001): Deadlock found when trying to get lock"), true},
		{"mysql lock timeout", errors.New("Error 1205 (HY000): Lock wait timeout exceeded"), true},
		{"sqlite busy", errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{"duplicate key", gorm.ErrDuplicatedKey, false},
		{"unrelated", errors.New("connection refused"), false},
	}
	for _, tc := range cases {
		if got := IsRetryableErr(tc.err); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}
