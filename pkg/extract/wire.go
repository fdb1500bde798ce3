package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/shipment"
)

// value accepts a JSON string or number. Models occasionally emit bare
// numbers for volumes and prices even when asked for strings.
type value string

func (v *value) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = value(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	if f, err := strconv.ParseFloat(n.String(), 64); err == nil {
		*v = value(strconv.FormatFloat(f, 'f', -1, 64))
		return nil
	}
	*v = value(n.String())
	return nil
}

func (v *value) String() string {
	if v == nil {
		return ""
	}
	return string(*v)
}

type wireProcurement struct {
	Supplier   *value `json:"supplier"`
	Good       *value `json:"good"`
	GoodVolume *value `json:"good_volume"`
	GoodPrice  *value `json:"good_price"`
	SupplyCost *value `json:"supply_cost"`
}

// wireProcurements decodes from either a single object or a list.
type wireProcurements []wireProcurement

func (p *wireProcurements) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var one wireProcurement
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return err
		}
		*p = wireProcurements{one}
		return nil
	}
	var many []wireProcurement
	if err := json.Unmarshal(trimmed, &many); err != nil {
		return err
	}
	*p = many
	return nil
}

type wireShipment struct {
	Date            *value           `json:"shipment_date"`
	Time            *value           `json:"shipment_time"`
	CustomerName    *value           `json:"customer_name"`
	CustomerAddress *value           `json:"customer_address"`
	Good            *value           `json:"good"`
	GoodVolume      *value           `json:"good_volume"`
	GoodPrice       *value           `json:"good_price"`
	ShipmentCount   *value           `json:"shipment_count"`
	ShipmentCost    *value           `json:"shipment_cost"`
	Supplier        *value           `json:"supplier"`
	Procurements    wireProcurements `json:"procurements"`
}

type wireShipments struct {
	Shipments []wireShipment `json:"shipments"`
}

func (w wireShipment) decode() shipment.Shipment {
	s := shipment.Shipment{
		Date:            w.Date.String(),
		Time:            w.Time.String(),
		CustomerName:    w.CustomerName.String(),
		CustomerAddress: w.CustomerAddress.String(),
		Good:            w.Good.String(),
		GoodVolume:      w.GoodVolume.String(),
		GoodPrice:       w.GoodPrice.String(),
		ShipmentCount:   w.ShipmentCount.String(),
		ShipmentCost:    w.ShipmentCost.String(),
		Supplier:        w.Supplier.String(),
	}
	for _, p := range w.Procurements {
		s.AddProcurement(shipment.Procurement{
			Supplier:   p.Supplier.String(),
			Good:       p.Good.String(),
			GoodVolume: p.GoodVolume.String(),
			GoodPrice:  p.GoodPrice.String(),
			SupplyCost: p.SupplyCost.String(),
		})
	}
	return s
}

// parse decodes a model answer into records. A payload without shipments
// yields ErrNoShipments.
func parse(data []byte) ([]shipment.Shipment, error) {
	data = bytes.TrimSpace(data)
	data = bytes.TrimPrefix(data, []byte("```json"))
	data = bytes.TrimPrefix(data, []byte("```"))
	data = bytes.TrimSuffix(data, []byte("```"))

	var w wireShipments
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to parse model answer: %w", err)
	}
	if len(w.Shipments) == 0 {
		return nil, ErrNoShipments
	}

	out := make([]shipment.Shipment, 0, len(w.Shipments))
	for _, ws := range w.Shipments {
		out = append(out, ws.decode())
	}
	return out, nil
}
