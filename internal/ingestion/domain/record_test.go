package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orderdom "github.com/dmehra2102/Kitchen-Unit/internal/order/domain"
)

func TestRecordValidate(t *testing.T) {
	ok := Record{ID: "a", Name: "Pad See Ew", Temp: "hot", ShelfLife: 210, DecayRate: 0.72}
	require.NoError(t, ok.Validate())

	tepid := ok
	tepid.Temp = "tepid"
	assert.NoError(t, tepid.Validate(), "temperature is checked by the kitchen")

	for name, r := range map[string]Record{
		"empty id":       {Temp: "hot", ShelfLife: 1, DecayRate: 1},
		"zero shelfLife": {ID: "b", Temp: "hot", DecayRate: 1},
		"negative decay": {ID: "c", Temp: "hot", ShelfLife: 1, DecayRate: -0.1},
	} {
		assert.ErrorIs(t, r.Validate(), ErrMalformedRecord, name)
	}
}

func TestRecordDecodesUpstreamFormat(t *testing.T) {
	var r Record
	require.NoError(t, json.Unmarshal([]byte(`{"id":"x1","name":"Acai Bowl","temp":"frozen","shelfLife":249,"decayRate":0.3}`), &r))

	o := r.Order()
	assert.Equal(t, orderdom.Order{ID: "x1", Name: "Acai Bowl", Temp: orderdom.TempFrozen, ShelfLife: 249, DecayRate: 0.3}, o)
}
