package model_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/order-email-api/internal/model"
)

func TestSchemaDescriptorMarshalsInOrder(t *testing.T) {
	var d model.SchemaDescriptor
	d.AddField("customer")
	d.AddField("order")
	d.AddField("customer")
	d.SetColumns("collect", []string{"Product", "Qty"})

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `{"customer":"string","order":"string","collect":["Product","Qty"]}`, string(out))
	assert.Equal(t, []string{"customer", "order"}, d.FieldNames())
}

func TestSchemaDescriptorColumnsReplacePlaceholder(t *testing.T) {
	var d model.SchemaDescriptor
	d.AddField("collect")
	d.AddField("customer")
	d.SetColumns("collect", []string{"Product"})

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `{"collect":["Product"],"customer":"string"}`, string(out))
}

func TestEmptySchemaDescriptor(t *testing.T) {
	out, err := json.Marshal(model.SchemaDescriptor{})
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(out))
}
