package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// SupportAdminUsername is the reserved username of the support account that
// can be attached to any lab.
const SupportAdminUsername = "supportAdmin"

// Admin is an administrator account embedded in a lab's admins array.
// Password holds the bcrypt hash and never leaves the service.
type Admin struct {
	ID         primitive.ObjectID `bson:"_id" json:"_id"`
	Username   string             `bson:"username" json:"username"`
	Password   string             `bson:"password" json:"-"`
	Email      string             `bson:"email,omitempty" json:"email,omitempty"`
	Phone      string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Activation `bson:",inline"`
	Stamps     `bson:",inline"`
}

// Staff is a lab employee account embedded in a lab's staffs array. Access
// lists the feature keys the staff member may use.
type Staff struct {
	ID         primitive.ObjectID `bson:"_id" json:"_id"`
	Name       string             `bson:"name" json:"name"`
	Username   string             `bson:"username" json:"username"`
	Password   string             `bson:"password" json:"-"`
	Email      string             `bson:"email,omitempty" json:"email,omitempty"`
	Phone      string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Access     []string           `bson:"access" json:"access"`
	Activation `bson:",inline"`
	Stamps     `bson:",inline"`
}
