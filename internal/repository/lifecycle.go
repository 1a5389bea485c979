package repository

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// activation builds the $set and $unset documents for an Active/Inactive
// transition. prefix addresses the target: "" for a top-level document or
// "admins.$." for a matched child. The metadata of the opposite transition
// is always removed.
func activation(prefix string, active bool, actor string, at time.Time) bson.M {
	if active {
		return bson.M{
			"$set": bson.M{
				prefix + "isActive":    true,
				prefix + "activatedAt": at,
				prefix + "activatedBy": actor,
			},
			"$unset": bson.M{
				prefix + "deactivatedAt": "",
				prefix + "deactivatedBy": "",
			},
		}
	}
	return bson.M{
		"$set": bson.M{
			prefix + "isActive":      false,
			prefix + "deactivatedAt": at,
			prefix + "deactivatedBy": actor,
		},
		"$unset": bson.M{
			prefix + "activatedAt": "",
			prefix + "activatedBy": "",
		},
	}
}

// softDeletion marks a lab deleted and forgets any earlier restore.
func softDeletion(actor string, at time.Time) bson.M {
	return bson.M{
		"$set":   bson.M{"isDeleted": true, "deletedAt": at, "deletedBy": actor},
		"$unset": bson.M{"restoredAt": "", "restoredBy": ""},
	}
}

// restoration reverses softDeletion and clears its metadata.
func restoration(actor string, at time.Time) bson.M {
	return bson.M{
		"$set":   bson.M{"isDeleted": false, "restoredAt": at, "restoredBy": actor},
		"$unset": bson.M{"deletedAt": "", "deletedBy": ""},
	}
}

// touch adds updatedAt/updatedBy for the document at prefix to an update.
func touch(update bson.M, prefix, actor string, at time.Time) bson.M {
	set, _ := update["$set"].(bson.M)
	if set == nil {
		set = bson.M{}
		update["$set"] = set
	}
	set[prefix+"updatedAt"] = at
	set[prefix+"updatedBy"] = actor
	return update
}
