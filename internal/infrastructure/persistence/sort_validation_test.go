package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortDirection(t *testing.T) {
	cases := map[string]string{
		"asc":                      "ASC",
		" ASC ":                    "ASC",
		"desc":                     "DESC",
		"":                         "DESC",
		"asc; DROP TABLE receipts": "DESC",
	}
	for in, want := range cases {
		assert.Equal(t, want, sortDirection(in), "input %q", in)
	}
}

func TestSortColumn(t *testing.T) {
	assert.Equal(t, "amount_cents", sortColumn("amount_cents", instructionSortColumns, "created_at"))
	assert.Equal(t, "paid_at", sortColumn(" Paid_At", instructionSortColumns, "created_at"))
	assert.Equal(t, "created_at", sortColumn("", instructionSortColumns, "created_at"))
	assert.Equal(t, "created_at", sortColumn("party_user_id; --", instructionSortColumns, "created_at"))
}
