package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
)

func TestAddHeader(t *testing.T) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Test")
	require.NoError(t, err)

	addHeader(sheet, "ID", "Name")

	require.Len(t, sheet.Rows, 1)
	require.Len(t, sheet.Rows[0].Cells, 2)
	assert.Equal(t, "ID", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "Name", sheet.Rows[0].Cells[1].String())
}
