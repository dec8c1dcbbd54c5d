package models

// SetMembership links an item to a named item set
type SetMembership struct {
	SetName string `json:"set_name" db:"set_name"`
	ItemID  ItemID `json:"item_id" db:"item_id"`
}

// SetDescriptor is the persisted definition of a named set: its kind and
// the YAML settings the questions of that set are built with.
type SetDescriptor struct {
	Name string `json:"name" db:"name"`
	Kind string `json:"kind" db:"kind"`
	Data []byte `json:"-" db:"data"`
}
