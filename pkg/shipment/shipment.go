package shipment

import (
	"github.com/google/uuid"
)

// Procurement represents one supply transaction tied to a shipment.
type Procurement struct {
	ShipmentID string `db:"shipment_id" json:"shipment_id,omitempty" dynamodbav:"shipment_id,omitempty"`
	Supplier   string `db:"supplier" json:"supplier" dynamodbav:"supplier"`
	Good       string `db:"good" json:"good" dynamodbav:"good"`
	GoodVolume string `db:"good_volume" json:"good_volume" dynamodbav:"good_volume"`
	GoodPrice  string `db:"good_price" json:"good_price" dynamodbav:"good_price"`
	SupplyCost string `db:"supply_cost" json:"supply_cost" dynamodbav:"supply_cost"`
}

// Shipment represents the logistics record collected from the operator.
// ID stays empty until the record is confirmed and handed to a ledger.
type Shipment struct {
	ID              string        `db:"shipment_id" json:"shipment_id,omitempty" dynamodbav:"shipment_id"`
	Date            string        `db:"shipment_date" json:"shipment_date" dynamodbav:"shipment_date"`
	Time            string        `db:"shipment_time" json:"shipment_time" dynamodbav:"shipment_time"`
	CustomerName    string        `db:"customer_name" json:"customer_name" dynamodbav:"customer_name"`
	CustomerAddress string        `db:"customer_address" json:"customer_address" dynamodbav:"customer_address"`
	Good            string        `db:"good" json:"good" dynamodbav:"good"`
	GoodVolume      string        `db:"good_volume" json:"good_volume" dynamodbav:"good_volume"`
	GoodPrice       string        `db:"good_price" json:"good_price" dynamodbav:"good_price"`
	ShipmentCount   string        `db:"shipment_count" json:"shipment_count" dynamodbav:"shipment_count"`
	ShipmentCost    string        `db:"shipment_cost" json:"shipment_cost" dynamodbav:"shipment_cost"`
	Supplier        string        `db:"supplier" json:"supplier" dynamodbav:"supplier"`
	Procurements    []Procurement `json:"procurements" dynamodbav:"procurements"`
}

// NewID returns a fresh, globally unique shipment identifier.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Get returns the value stored under key. The boolean is false for keys
// that are not shipment fields.
func (s *Shipment) Get(key Field) (string, bool) {
	p := s.field(key)
	if p == nil {
		return "", false
	}
	return *p, true
}

// Set writes value under key and reports whether key is a shipment field.
func (s *Shipment) Set(key Field, value string) bool {
	p := s.field(key)
	if p == nil {
		return false
	}
	*p = value
	return true
}

func (s *Shipment) field(key Field) *string {
	switch key {
	case FieldDate:
		return &s.Date
	case FieldTime:
		return &s.Time
	case FieldCustomerName:
		return &s.CustomerName
	case FieldCustomerAddress:
		return &s.CustomerAddress
	case FieldGood:
		return &s.Good
	case FieldGoodVolume:
		return &s.GoodVolume
	case FieldGoodPrice:
		return &s.GoodPrice
	case FieldShipmentCount:
		return &s.ShipmentCount
	case FieldShipmentCost:
		return &s.ShipmentCost
	case FieldSupplier:
		return &s.Supplier
	default:
		return nil
	}
}

// AddProcurement appends p to the shipment's procurements.
func (s *Shipment) AddProcurement(p Procurement) {
	s.Procurements = append(s.Procurements, p)
}

// AssignID stamps the shipment and every attached procurement with id.
func (s *Shipment) AssignID(id string) {
	s.ID = id
	for i := range s.Procurements {
		s.Procurements[i].ShipmentID = id
	}
}

// Clone returns a deep copy so queued records are never aliased.
func (s Shipment) Clone() Shipment {
	c := s
	if s.Procurements != nil {
		c.Procurements = make([]Procurement, len(s.Procurements))
		copy(c.Procurements, s.Procurements)
	}
	return c
}

// Get returns the value stored under key. The boolean is false for keys
// that are not procurement fields.
func (p *Procurement) Get(key Field) (string, bool) {
	f := p.field(key)
	if f == nil {
		return "", false
	}
	return *f, true
}

// Set writes value under key and reports whether key is a procurement field.
func (p *Procurement) Set(key Field, value string) bool {
	f := p.field(key)
	if f == nil {
		return false
	}
	*f = value
	return true
}

func (p *Procurement) field(key Field) *string {
	switch key {
	case FieldSupplier:
		return &p.Supplier
	case FieldGood:
		return &p.Good
	case FieldGoodVolume:
		return &p.GoodVolume
	case FieldGoodPrice:
		return &p.GoodPrice
	case FieldSupplyCost:
		return &p.SupplyCost
	default:
		return nil
	}
}
