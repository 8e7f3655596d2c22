package validators

import "go.mongodb.org/mongo-driver/bson"

var HoldValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"tenant_id",
			"customer_phone",
			"hold_type",
			"vertical",
			"slot_start",
			"slot_end",
			"status",
			"expires_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
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

			"hold_type": bson.M{
				"bsonType": "string",
				"enum": []string{
					"appointment",
					"reservation",
					"order",
				},
			},

			"slot_start": bson.M{
				"bsonType": "date",
			},

			"slot_end": bson.M{
				"bsonType": "date",
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"active",
					"expired",
					"released",
					"converted",
				},
			},

			"trust_score": bson.M{
				"bsonType": "int",
				"minimum":  0,
				"maximum":  100,
			},

			"requires_deposit": bson.M{
				"bsonType": "bool",
			},

			"deposit_amount": bson.M{
				"bsonType": []string{"double", "int"},
				"minimum":  0,
			},

			"expires_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
