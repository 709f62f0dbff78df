package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"B3Sentinel/internal/model"
)

func TestDemoQuotes(t *testing.T) {
	quotes := DemoQuotes()
	assert.Len(t, quotes, DemoEquities().Len()+DemoFunds().Len())

	petr, ok := quotes["PETR4.SA"]
	require.True(t, ok)
	assert.InDelta(t, 36.50, petr.Price, 1e-9)
	assert.InDelta(t, 0.142, petr.DividendYield, 1e-9)
	assert.Equal(t, model.CategoryEquity, petr.Category)
	assert.Equal(t, "Outros", petr.Sector)

	mxrf := quotes["MXRF11.SA"]
	assert.Equal(t, model.CategoryFund, mxrf.Category)
	assert.Equal(t, "Papel", mxrf.Sector)
	assert.InDelta(t, 0.124, mxrf.DividendYield, 1e-9)
}
