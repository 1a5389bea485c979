package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// TestCategory groups diagnostic tests; stored in `testCategories`.
type TestCategory struct {
	ID           primitive.ObjectID `bson:"_id" json:"_id"`
	CategoryName string             `bson:"categoryName" json:"categoryName"`
	Tests        []Test             `bson:"tests" json:"tests"`
	Stamps       `bson:",inline"`
}

// Test is a diagnostic test embedded in its category. Names are unique per
// category.
type Test struct {
	ID       primitive.ObjectID `bson:"_id" json:"_id"`
	TestName string             `bson:"testName" json:"testName"`
	IsOnline bool               `bson:"isOnline" json:"isOnline"`
	Stamps   `bson:",inline"`
}
