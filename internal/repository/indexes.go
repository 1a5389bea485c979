package repository

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/iliyamo/lab-registry/internal/docstore"
)

// Indexes back the global uniqueness rules and the reference lookups. A
// unique index over an embedded array would be enforced across documents,
// not within one parent, so parent-scoped rules rely on the guarded push
// instead.
var Indexes = map[string][]mongo.IndexModel{
	docstore.Labs: {
		{
			Keys: bson.D{{Key: "labId", Value: 1}},
			Options: options.Index().SetName("uniq_live_labId").SetUnique(true).
				SetPartialFilterExpression(bson.M{"isDeleted": false}),
		},
		{
			Keys:    bson.D{{Key: "zoneId", Value: 1}, {Key: "isDeleted", Value: 1}},
			Options: options.Index().SetName("idx_zoneId_isDeleted"),
		},
		{
			Keys:    bson.D{{Key: "subZoneId", Value: 1}, {Key: "isDeleted", Value: 1}},
			Options: options.Index().SetName("idx_subZoneId_isDeleted"),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("idx_email"),
		},
	},
	docstore.Zones: {
		{
			Keys:    bson.D{{Key: "zoneName", Value: 1}},
			Options: options.Index().SetName("uniq_zoneName").SetUnique(true),
		},
	},
	docstore.TestCategories: {
		{
			Keys:    bson.D{{Key: "categoryName", Value: 1}},
			Options: options.Index().SetName("uniq_categoryName").SetUnique(true),
		},
	},
}
