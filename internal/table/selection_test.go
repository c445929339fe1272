package table_test

import (
	"testing"

	"github.com/Mujanati13/xcite/internal/models"
	"github.com/Mujanati13/xcite/internal/table"
	"github.com/stretchr/testify/assert"
)

func TestToggle_IneligibleNeverAdded(t *testing.T) {
	rows := []models.Property{property(1, 0), property(2, 2), property(3, -1)}
	sel := table.NewSelection()

	for _, p := range rows {
		sel.Toggle(p.ID, rows)
		sel.Toggle(p.ID, rows)
		sel.Toggle(p.ID, rows)
	}

	assert.Equal(t, 0, sel.Len())
}

func TestToggle_EligibleFlips(t *testing.T) {
	rows := []models.Property{property(1, 1)}
	sel := table.NewSelection()

	sel.Toggle(1, rows)
	assert.True(t, sel.Has(1))

	sel.Toggle(1, rows)
	assert.False(t, sel.Has(1))
}

func TestToggle_RowNotOnPage(t *testing.T) {
	sel := table.NewSelection()

	sel.Toggle(99, []models.Property{property(1, 1)})

	assert.Equal(t, 0, sel.Len())
}

func TestToggle_EligibilityRederived(t *testing.T) {
	sel := table.NewSelection()
	sel.Toggle(1, []models.Property{property(1, 0)})
	assert.False(t, sel.Has(1))

	// same id, status changed on reload
	sel.Toggle(1, []models.Property{property(1, 1)})
	assert.True(t, sel.Has(1))
}

func TestSelectAllEligible_SecondCallClears(t *testing.T) {
	rows := []models.Property{property(10, 1), property(11, 0), property(12, 1)}
	sel := table.NewSelection()

	sel.SelectAllEligible(rows)
	assert.Equal(t, []int64{10, 12}, sel.IDs())

	sel.SelectAllEligible(rows)
	assert.Empty(t, sel.IDs())
}

func TestSelectAllEligible_PartialSelectionCompletes(t *testing.T) {
	rows := []models.Property{property(10, 1), property(11, 0), property(12, 1)}
	sel := table.NewSelection()
	sel.Toggle(12, rows)

	sel.SelectAllEligible(rows)

	assert.Equal(t, []int64{10, 12}, sel.IDs())
}

func TestSelectAllEligible_NoEligibleRows(t *testing.T) {
	rows := []models.Property{property(11, 0)}
	sel := table.NewSelection()

	sel.SelectAllEligible(rows)
	sel.SelectAllEligible(rows)

	assert.Empty(t, sel.IDs())
}

func TestSelection_Clear(t *testing.T) {
	rows := []models.Property{property(1, 1), property(2, 1)}
	sel := table.NewSelection()
	sel.SelectAllEligible(rows)

	sel.Clear()

	assert.Equal(t, 0, sel.Len())
	assert.False(t, sel.Has(1))
}
