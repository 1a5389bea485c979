package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// Zone is a geographic grouping stored in the `labZone` collection. Zone
// names are globally unique and kept upper-cased.
type Zone struct {
	ID       primitive.ObjectID `bson:"_id" json:"_id"`
	ZoneName string             `bson:"zoneName" json:"zoneName"`
	SubZones []SubZone          `bson:"subZones" json:"subZones"`
	Stamps   `bson:",inline"`
}

// SubZone is embedded in a zone; its name is unique within that zone.
type SubZone struct {
	ID          primitive.ObjectID `bson:"_id" json:"_id"`
	SubZoneName string             `bson:"subZoneName" json:"subZoneName"`
	Stamps      `bson:",inline"`
}
