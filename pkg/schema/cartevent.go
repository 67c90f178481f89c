package schema

import "github.com/hamba/avro/v2"

const CartEventSchemaTextV1 = `{
	"type": "record",
	"namespace": "carts",
	"name": "cart_event",
	"fields": [
		{"name": "cart_id", "type": "string"},
		{"name": "action", "type": "string"},
		{"name": "product_id", "type": "string"},
		{"name": "quantity", "type": "int"},
		{"name": "at_millis", "type": "long"}
	]
}`

// A CartEventV1 is the wire form of one cart mutation. Quantity is
// zero and ProductID empty for clear events.
type CartEventV1 struct {
	CartID    string `avro:"cart_id"`
	Action    string `avro:"action"`
	ProductID string `avro:"product_id"`
	Quantity  int    `avro:"quantity"`
	AtMillis  int64  `avro:"at_millis"`
}

// CartEventV1Avro parses the V1 schema text. Panics on a broken
// schema constant, which only a source edit can cause.
func CartEventV1Avro() avro.Schema {
	return avro.MustParse(CartEventSchemaTextV1)
}
