package shipment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShipmentGetSet(t *testing.T) {
	var s Shipment
	for i, key := range ShipmentFields {
		value := string(rune('a' + i))
		require.True(t, s.Set(key, value), "set %s", key)

		got, ok := s.Get(key)
		require.True(t, ok)
		assert.Equal(t, value, got)
	}

	assert.Equal(t, "a", s.Date)
	assert.Equal(t, "j", s.Supplier)
}

func TestShipmentSetUnknownKey(t *testing.T) {
	s := Shipment{Good: "Бетон"}

	assert.False(t, s.Set(FieldSupplyCost, "1"))
	assert.False(t, s.Set(FieldProcurement, "1"))
	assert.False(t, s.Set(Field("bogus"), "1"))

	_, ok := s.Get(FieldID)
	assert.False(t, ok)
	assert.Equal(t, Shipment{Good: "Бетон"}, s)
}

func TestProcurementGetSet(t *testing.T) {
	var p Procurement
	for _, key := range ProcurementFields {
		require.True(t, p.Set(key, string(key)))
	}

	assert.Equal(t, Procurement{
		Supplier:   "supplier",
		Good:       "good",
		GoodVolume: "good_volume",
		GoodPrice:  "good_price",
		SupplyCost: "supply_cost",
	}, p)

	assert.False(t, p.Set(FieldCustomerName, "x"))
}

func TestAssignIDStampsProcurements(t *testing.T) {
	s := Shipment{Good: "Бетон М220"}
	s.AddProcurement(Procurement{Supplier: "Евробетон"})
	s.AddProcurement(Procurement{Supplier: "Авира Строй"})

	s.AssignID("abc")

	assert.Equal(t, "abc", s.ID)
	for _, p := range s.Procurements {
		assert.Equal(t, "abc", p.ShipmentID)
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := Shipment{Good: "Бетон"}
	s.AddProcurement(Procurement{Supplier: "Евробетон"})

	c := s.Clone()
	c.Procurements[0].Supplier = "changed"
	c.Good = "changed"

	assert.Equal(t, "Евробетон", s.Procurements[0].Supplier)
	assert.Equal(t, "Бетон", s.Good)
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		id := NewID()
		require.NotEmpty(t, id)
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
