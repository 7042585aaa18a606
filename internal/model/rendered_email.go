// internal/model/rendered_email.go
package model

import "time"

const (
	OperationGenerate = "generate"
	OperationReplay   = "replay"
)

type RenderedEmail struct {
	ID        string    `db:"id" json:"id"`
	Template  string    `db:"template" json:"template"`
	Operation string    `db:"operation" json:"operation"` // generate, replay
	OrderRef  string    `db:"order_ref" json:"order_ref,omitempty"`
	HTML      string    `db:"html" json:"html"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
