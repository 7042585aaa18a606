// internal/model/discovery.go
package model

// Discovery documents the generate endpoint for GET callers.
type Discovery struct {
	Swagger EndpointDoc `json:"swagger"`
}

type EndpointDoc struct {
	Method      string        `json:"method"`
	Endpoint    string        `json:"endpoint"`
	Description string        `json:"description"`
	Parameters  ParametersDoc `json:"parameters"`
}

type ParametersDoc struct {
	Customer         string       `json:"customer"`
	Order            string       `json:"order"`
	OrderDate        string       `json:"order_date"`
	PaymentMethod    string       `json:"payment_method"`
	DeliveryType     string       `json:"delivery_type"`
	DeliveryForecast string       `json:"delivery_forecast"`
	OrderTracking    string       `json:"order_tracking"`
	Products         []ProductDoc `json:"products"`
	Summary          SummaryDoc   `json:"summary"`
}

type ProductDoc struct {
	Description string `json:"Product Description"`
	Quantity    string `json:"Quantity"`
	Price       string `json:"Price"`
	Total       string `json:"Total"`
}

type SummaryDoc struct {
	Itens      string `json:"Itens"`
	Warranties string `json:"Warranties"`
	Shipping   string `json:"Shipping"`
	Total      string `json:"Total"`
}

func GenerateDiscovery() Discovery {
	return Discovery{
		Swagger: EndpointDoc{
			Method:      "POST",
			Endpoint:    "/api/email",
			Description: "Generates the HTML of an e-mail from the given parameters.",
			Parameters: ParametersDoc{
				Customer:         "string",
				Order:            "string",
				OrderDate:        "string",
				PaymentMethod:    "string",
				DeliveryType:     "string",
				DeliveryForecast: "string",
				OrderTracking:    "string",
				Products: []ProductDoc{
					{Description: "string", Quantity: "int", Price: "string", Total: "string"},
				},
				Summary: SummaryDoc{
					Itens:      "string",
					Warranties: "string",
					Shipping:   "string",
					Total:      "string",
				},
			},
		},
	}
}
