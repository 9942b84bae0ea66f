package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEquipment(t *testing.T) {
	eq := ParseEquipment("tireuse=1;co2=2;comptoir=1;tonnelle=1")
	require.Equal(t, Equipment{Tireuse: 1, CO2: 2, Comptoir: 1, Tonnelle: 1}, eq)
}

func TestParseEquipmentIgnoresNoise(t *testing.T) {
	eq := ParseEquipment("livraison avant midi; tireuse=deux; CO2 = 1 ;frigo=3")
	require.Equal(t, Equipment{CO2: 1}, eq)
}

func TestParseEquipmentEmptyNotes(t *testing.T) {
	require.True(t, ParseEquipment("").IsZero())
	require.True(t, ParseEquipment("appeler avant de passer").IsZero())
}

func TestEquipmentAddSign(t *testing.T) {
	var total Equipment
	total.Add(Equipment{Tireuse: 1, CO2: 2}, 1)
	total.Add(Equipment{CO2: 1}, -1)
	require.Equal(t, Equipment{Tireuse: 1, CO2: 1}, total)
	total.Add(Equipment{Tireuse: 1, CO2: 1}, -1)
	require.True(t, total.IsZero())
}
