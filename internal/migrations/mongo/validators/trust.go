package validators

import "go.mongodb.org/mongo-driver/bson"

var TrustProfileValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"tenant_id",
			"customer_phone",
			"score",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"tenant_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"customer_phone": bson.M{
				"bsonType": "string",
				"pattern":  "^[0-9]+$",
			},

			"score": bson.M{
				"bsonType": "int",
				"minimum":  0,
				"maximum":  100,
			},

			"is_vip": bson.M{
				"bsonType": "bool",
			},

			"blocked": bson.M{
				"bsonType": "bool",
			},

			"no_show_count": bson.M{
				"bsonType": "int",
				"minimum":  0,
			},

			"completed_count": bson.M{
				"bsonType": "int",
				"minimum":  0,
			},
		},
	},
}

var TrustAdjustmentValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"tenant_id",
			"customer_phone",
			"delta",
			"reason",
		},
		"additionalProperties": true,

		"properties": bson.M{
			// The _id is the caller-supplied reference id; the primary key
			// index is what makes adjustments idempotent.
			"_id": bson.M{
				"bsonType": "string",
			},

			"tenant_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"customer_phone": bson.M{
				"bsonType": "string",
				"pattern":  "^[0-9]+$",
			},

			"delta": bson.M{
				"bsonType": "int",
				"minimum":  -20,
				"maximum":  20,
			},

			"reason": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},
		},
	},
}
