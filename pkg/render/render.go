package render

import (
	"strings"

	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/shipment"
)

const (
	confirmationHeader = "Пожалуйста, подтвердите информацию об отгрузке:"
	procurementHeading = "Поставка:"
	procurementDivider = "--------------------------"
	closingDivider     = "==============================="
)

// Operator choices offered as reply keyboards.
const (
	ChoiceSave           = "Сохранить"
	ChoiceCorrect        = "Исправить"
	ChoiceAddProcurement = "Добавить закупку"
	ChoiceNewBatch       = "Добавить новую отгрузку"
)

// Confirmation renders s for review. Every shipment field is listed in
// fixed order, absent values render as empty strings, and procurements
// follow as indented blocks. The output depends on s only.
func Confirmation(s shipment.Shipment) string {
	var b strings.Builder
	b.WriteString(confirmationHeader)
	b.WriteString("\n\n")

	for _, key := range shipment.ShipmentFields {
		value, _ := s.Get(key)
		writeLine(&b, "", key, value)
	}

	for _, p := range s.Procurements {
		b.WriteString(procurementDivider)
		b.WriteString("\n")
		b.WriteString(procurementHeading)
		b.WriteString("\n")
		for _, key := range shipment.ProcurementFields {
			value, _ := p.Get(key)
			writeLine(&b, "\t", key, value)
		}
	}
	b.WriteString(closingDivider)
	b.WriteString("\n")

	return b.String()
}

func writeLine(b *strings.Builder, indent string, key shipment.Field, value string) {
	b.WriteString(indent)
	b.WriteString(shipment.Label(key))
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteString("\n")
}

// ConfirmChoices returns the options offered with a confirmation.
func ConfirmChoices() []string {
	return []string{ChoiceSave, ChoiceCorrect, ChoiceAddProcurement}
}

// FieldMenu returns the labels an operator can pick for correction.
func FieldMenu() []string {
	menu := make([]string, 0, len(shipment.ShipmentFields)+1)
	for _, key := range shipment.ShipmentFields {
		menu = append(menu, shipment.Label(key))
	}
	return append(menu, shipment.Label(shipment.FieldProcurement))
}

// NextStepChoices returns the options offered once a batch is exhausted.
func NextStepChoices() []string {
	return []string{ChoiceNewBatch}
}
