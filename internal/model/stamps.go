package model

import "time"

// Stamps carries the creation and last-update audit fields shared by every
// stored document and embedded child. It is inlined into the owning struct
// so the fields sit at the same level in BSON and JSON.
type Stamps struct {
	CreatedBy string     `bson:"createdBy" json:"createdBy,omitempty"`
	CreatedAt time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedBy string     `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
	UpdatedAt *time.Time `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// Activation records the Active/Inactive state of an account or lab together
// with who performed the most recent transition. Only the metadata of the
// latest transition is kept; the inverse pair is cleared on every change.
type Activation struct {
	IsActive      bool       `bson:"isActive" json:"isActive"`
	ActivatedBy   string     `bson:"activatedBy,omitempty" json:"activatedBy,omitempty"`
	ActivatedAt   *time.Time `bson:"activatedAt,omitempty" json:"activatedAt,omitempty"`
	DeactivatedBy string     `bson:"deactivatedBy,omitempty" json:"deactivatedBy,omitempty"`
	DeactivatedAt *time.Time `bson:"deactivatedAt,omitempty" json:"deactivatedAt,omitempty"`
}
