package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = NewSchema("test", "Order ID", "Buyer", "SI No", "Total")

func TestNewSchema(t *testing.T) {
	assert.Equal(t, "test", testSchema.Name())
	assert.Equal(t, 4, testSchema.Len())
	assert.Equal(t, testSchema.Name(), testSchema.New().Schema().Name())

	cols := testSchema.Columns()
	cols[0] = "changed"
	assert.Equal(t, "Order ID", testSchema.Columns()[0])

	assert.Panics(t, func() { NewSchema("dup", "A", "B", "A") })
}

func TestSchemaNew(t *testing.T) {
	r := testSchema.New(Fields{"Order ID": "X1", "Unknown": "dropped"}, Fields{"Total": "10.00"})
	assert.Equal(t, []string{"X1", "", "", "10.00"}, r.Values())
	assert.Equal(t, "", r.Get("Unknown"))
	assert.Equal(t, "", r.Get("Buyer"))
	assert.Equal(t, map[string]string{"Order ID": "X1", "Buyer": "", "SI No": "", "Total": "10.00"}, r.Map())

	t.Run("later parts override", func(t *testing.T) {
		r := testSchema.New(Fields{"Buyer": "A"}, Fields{"Buyer": "B"})
		assert.Equal(t, "B", r.Get("Buyer"))
	})
}

func TestAssemble(t *testing.T) {
	scalars := Fields{"Order ID": "171-1", "Buyer": "Asha"}

	t.Run("one record per item", func(t *testing.T) {
		items := []Fields{
			{"SI No": "1", "Total": "100.00"},
			{"SI No": "2", "Total": "50.00"},
			{"SI No": "3"},
		}
		recs := Assemble(testSchema, scalars, items)
		require.Len(t, recs, 3)
		for i, r := range recs {
			assert.Len(t, r.Values(), testSchema.Len())
			assert.Equal(t, "171-1", r.Get("Order ID"))
			assert.Equal(t, "Asha", r.Get("Buyer"))
			assert.Equal(t, items[i]["SI No"], r.Get("SI No"))
		}
		assert.Equal(t, "", recs[2].Get("Total"))
	})

	t.Run("no items", func(t *testing.T) {
		assert.Empty(t, Assemble(testSchema, scalars, nil))
	})
}

func TestSingle(t *testing.T) {
	r := Single(testSchema)
	assert.Equal(t, []string{"", "", "", ""}, r.Values())
	assert.Equal(t, "test", r.Schema().Name())
}
