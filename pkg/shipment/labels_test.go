package shipment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabelRoundTrip(t *testing.T) {
	all := append(append([]Field{}, ShipmentFields...), ProcurementFields...)
	all = append(all, FieldProcurement, FieldID)

	for _, key := range all {
		label := Label(key)
		assert.NotEqual(t, string(key), label, "key %s has no label", key)

		got, ok := KeyForLabel(label)
		assert.True(t, ok, "label %q", label)
		assert.Equal(t, key, got)
	}
}

func TestKeyForLabelUnknown(t *testing.T) {
	_, ok := KeyForLabel("Цвет кузова")
	assert.False(t, ok)

	_, ok = KeyForLabel("")
	assert.False(t, ok)
}

func TestLabelFallsBackToKey(t *testing.T) {
	assert.Equal(t, "bogus", Label(Field("bogus")))
}

func TestNextField(t *testing.T) {
	tests := []struct {
		name    string
		current Field
		want    Field
		wantOK  bool
	}{
		{"first", FieldSupplier, FieldGood, true},
		{"middle", FieldGoodVolume, FieldGoodPrice, true},
		{"last", FieldSupplyCost, "", false},
		{"not found", FieldCustomerName, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NextField(ProcurementFields, tt.current)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFieldCounts(t *testing.T) {
	assert.Len(t, ShipmentFields, 10)
	assert.Len(t, ProcurementFields, 5)
	assert.True(t, IsShipmentField(FieldShipmentCost))
	assert.False(t, IsShipmentField(FieldSupplyCost))
	assert.False(t, IsShipmentField(FieldProcurement))
}
