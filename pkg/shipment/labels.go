package shipment

// Field is an internal record key.
type Field string

const (
	FieldDate            Field = "shipment_date"
	FieldTime            Field = "shipment_time"
	FieldCustomerName    Field = "customer_name"
	FieldCustomerAddress Field = "customer_address"
	FieldGood            Field = "good"
	FieldGoodVolume      Field = "good_volume"
	FieldGoodPrice       Field = "good_price"
	FieldShipmentCount   Field = "shipment_count"
	FieldShipmentCost    Field = "shipment_cost"
	FieldSupplier        Field = "supplier"
	FieldSupplyCost      Field = "supply_cost"

	FieldProcurement Field = "procurement"
	FieldID          Field = "id"
)

// ShipmentFields lists the shipment keys in presentation order.
var ShipmentFields = []Field{
	FieldDate,
	FieldTime,
	FieldCustomerName,
	FieldCustomerAddress,
	FieldGood,
	FieldGoodVolume,
	FieldGoodPrice,
	FieldShipmentCount,
	FieldShipmentCost,
	FieldSupplier,
}

// ProcurementFields lists the procurement keys in presentation order.
var ProcurementFields = []Field{
	FieldSupplier,
	FieldGood,
	FieldGoodVolume,
	FieldGoodPrice,
	FieldSupplyCost,
}

var labels = map[Field]string{
	FieldDate:            "Дата отгрузки",
	FieldTime:            "Время отгрузки",
	FieldCustomerName:    "Наименование грузополучателя",
	FieldCustomerAddress: "Адрес грузополучателя",
	FieldGood:            "Наименование товара",
	FieldGoodVolume:      "Объём/количество товара",
	FieldGoodPrice:       "Цена товара",
	FieldShipmentCount:   "Количество отгрузок",
	FieldShipmentCost:    "Стоимость отгрузки",
	FieldSupplier:        "Наименование поставщика",
	FieldSupplyCost:      "Стоимость поставки",
	FieldProcurement:     "Закупка",
	FieldID:              "ID",
}

var keys = func() map[string]Field {
	m := make(map[string]Field, len(labels))
	for k, l := range labels {
		m[l] = k
	}
	return m
}()

// Label returns the display label for key, or the key itself when unknown.
func Label(key Field) string {
	if l, ok := labels[key]; ok {
		return l
	}
	return string(key)
}

// KeyForLabel resolves a display label back to its key.
func KeyForLabel(label string) (Field, bool) {
	k, ok := keys[label]
	return k, ok
}

// NextField returns the key following current in fields. It reports false
// when current is the last key or is not in fields.
func NextField(fields []Field, current Field) (Field, bool) {
	for i, f := range fields {
		if f == current {
			if i+1 < len(fields) {
				return fields[i+1], true
			}
			return "", false
		}
	}
	return "", false
}

// IsShipmentField reports whether key is one of ShipmentFields.
func IsShipmentField(key Field) bool {
	for _, f := range ShipmentFields {
		if f == key {
			return true
		}
	}
	return false
}
