package flipkart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/labels-extractor/internal/core"
)

const sheet = `Flipkart label sheet
OD123456789012345678
Shipping/Customer address:
Name: Ravi Kumar
45, Lake View Apartments
Bengaluru, Karnataka - 560034
HBD: 04 - 01
CPD: 06 - 01
Sold By: Acme Retail
GSTIN: 29ABCDE1234F1Z5
SKU ID | KURTA-BLU-M | Blue cotton kurta
QTY 2
AWB No. FMPC1234567890
Printed at 1435 hrs, 05/01/24
OD987654321098765432
SKU ID: MUG-01
Description: Ceramic mug
QTY 1
`

func TestExtract(t *testing.T) {
	res := New(nil).Extract(core.Document{Name: "fk.pdf", Pages: []string{sheet}})
	assert.Equal(t, 2, res.Blocks)
	require.Len(t, res.Records, 2)

	assert.Equal(t, map[string]string{
		ColOrderID:       "OD123456789012345678",
		ColSKU:           "KURTA-BLU-M",
		ColDescription:   "Blue cotton kurta",
		ColQty:           "2",
		ColPrintData:     "05/01/24",
		ColPickupPartner: "Ekart Logistics",
		ColHBD:           "04-01",
		ColCPD:           "06-01",
		ColAWB:           "FMPC1234567890",
		ColGSTIN:         "29ABCDE1234F1Z5",
		ColAddress:       "Ravi Kumar, 45, Lake View Apartments, Bengaluru, Karnataka",
		ColPincode:       "560034",
	}, res.Records[0].Map())

	second := res.Records[1]
	assert.Equal(t, "OD987654321098765432", second.Get(ColOrderID))
	assert.Equal(t, "MUG-01", second.Get(ColSKU))
	assert.Equal(t, "Ceramic mug", second.Get(ColDescription))
	assert.Equal(t, "1", second.Get(ColQty))
	assert.Equal(t, "", second.Get(ColAWB))
	assert.Equal(t, "", second.Get(ColAddress))
	assert.Equal(t, PickupPartner, second.Get(ColPickupPartner))
}

func TestExtract_NoOrderIDs(t *testing.T) {
	res := New(nil).Extract(core.Document{Name: "x.pdf", Pages: []string{"SKU ID | A | B\nQTY 1\n"}})
	assert.Zero(t, res.Blocks)
	assert.True(t, res.Empty())
}

func TestFields_AddressOnNameLine(t *testing.T) {
	text := "OD123456789012345678\nShipping/Customer address: Name: Meena\nJaipur 302001\n\nSold By: X\n"
	f := Fields("OD123456789012345678", text)
	assert.Equal(t, "Meena, Jaipur", f[ColAddress])
	assert.Equal(t, "302001", f[ColPincode])
}

func TestSKUCleanup(t *testing.T) {
	sku, desc := skuAndDescription("SKU ID: QTY 1 TSHIRT-9\nDescription: Tee\nQTY 1")
	assert.Equal(t, "TSHIRT-9", sku)
	assert.Equal(t, "Tee", desc)
}
