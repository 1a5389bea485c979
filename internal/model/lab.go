package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Default billing values applied to every new lab. Billing itself is handled
// elsewhere; the registry only seeds the fields.
const (
	DefaultLabIncentive = 4
	DefaultInvoicePrice = 10
)

// Lab is a tenant laboratory stored in the `labs` collection. It owns two
// embedded account collections, admins and staffs.
//
// Fields:
//  LabID     – six digit business identifier, unique among non-deleted labs.
//  Contact1  – required contact number; Contact2 is optional.
//  ZoneID    – reference into labZone; SubZoneID must belong to that zone.
//  IsDeleted – soft delete flag; deleted labs are hidden from reads.
type Lab struct {
	ID        primitive.ObjectID `bson:"_id" json:"_id"`
	LabName   string             `bson:"labName" json:"labName"`
	LabID     string             `bson:"labId" json:"labId"`
	Address   string             `bson:"address" json:"address"`
	Contact1  string             `bson:"contact1" json:"contact1"`
	Contact2  string             `bson:"contact2,omitempty" json:"contact2,omitempty"`
	Email     string             `bson:"email" json:"email"`
	ZoneID    primitive.ObjectID `bson:"zoneId" json:"zoneId"`
	SubZoneID primitive.ObjectID `bson:"subZoneId" json:"subZoneId"`

	Admins []Admin `bson:"admins" json:"-"`
	Staffs []Staff `bson:"staffs" json:"-"`

	LabIncentive  float64 `bson:"labIncentive" json:"labIncentive"`
	InvoicePrice  float64 `bson:"invoicePrice" json:"invoicePrice"`
	HasWarning    bool    `bson:"hasWarning" json:"hasWarning"`
	Warning       string  `bson:"warning" json:"warning"`
	TotalReceipt  float64 `bson:"totalReceipt" json:"totalReceipt"`
	PayableAmount float64 `bson:"payableAmount" json:"payableAmount"`

	Activation `bson:",inline"`
	IsDeleted  bool       `bson:"isDeleted" json:"isDeleted"`
	DeletedBy  string     `bson:"deletedBy,omitempty" json:"deletedBy,omitempty"`
	DeletedAt  *time.Time `bson:"deletedAt,omitempty" json:"deletedAt,omitempty"`
	RestoredBy string     `bson:"restoredBy,omitempty" json:"restoredBy,omitempty"`
	RestoredAt *time.Time `bson:"restoredAt,omitempty" json:"restoredAt,omitempty"`
	Stamps     `bson:",inline"`
}

// ZoneCount is one row of the labs-per-zone breakdown.
type ZoneCount struct {
	ZoneID primitive.ObjectID `json:"zoneId"`
	Labs   int64              `json:"labs"`
}

// LabStats summarises the lab registry.
type LabStats struct {
	Total    int64       `json:"total"`
	Active   int64       `json:"active"`
	Inactive int64       `json:"inactive"`
	Deleted  int64       `json:"deleted"`
	ByZone   []ZoneCount `json:"byZone"`
}
