package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"tenant_id",
			"booking_type",
			"customer_phone",
			"vertical",
			"start_time",
			"end_time",
			"status",
			"confirmation_code",
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

			"booking_type": bson.M{
				"bsonType": "string",
				"enum": []string{
					"appointment",
					"reservation",
					"order",
				},
			},

			"customer_phone": bson.M{
				"bsonType": "string",
				"pattern":  "^[0-9]+$",
			},

			"customer_name": bson.M{
				"bsonType":  "string",
				"maxLength": 100,
			},

			"start_time": bson.M{
				"bsonType": "date",
			},

			"end_time": bson.M{
				"bsonType": "date",
			},

			"party_size": bson.M{
				"bsonType": "int",
				"minimum":  1,
				"maximum":  200,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"confirmed",
					"cancelled",
				},
			},

			"confirmation_code": bson.M{
				"bsonType":  "string",
				"minLength": 4,
				"maxLength": 12,
			},

			"trust_score": bson.M{
				"bsonType": "int",
				"minimum":  0,
				"maximum":  100,
			},

			"deposit_paid": bson.M{
				"bsonType": "bool",
			},
		},
	},
}
