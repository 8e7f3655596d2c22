package model

// Assistant types a tool may be enabled for. The wildcard enables a tool for
// every tenant type.
const (
	AssistantTypeWildcard   = "*"
	AssistantTypeDental     = "dental_clinic"
	AssistantTypeMedical    = "medical_clinic"
	AssistantTypeRestaurant = "restaurant"
	AssistantTypeSalon      = "salon"
)

// DayHours is one weekday's opening window in the tenant's local timezone,
// "HH:MM" 24h format.
type DayHours struct {
	Open   string `json:"open" bson:"open"`
	Close  string `json:"close" bson:"close"`
	Closed bool   `json:"closed" bson:"closed"`
}

// Tenant is one independent business on the platform. All data is
// partitioned by tenant id.
type Tenant struct {
	ID            string              `json:"id,omitempty" bson:"_id,omitempty"`
	Name          string              `json:"name" bson:"name" validate:"required,min=2,max=100"`
	AssistantType string              `json:"assistant_type" bson:"assistant_type" validate:"required"`
	Vertical      string              `json:"vertical" bson:"vertical" validate:"required"`
	Timezone      string              `json:"timezone" bson:"timezone" validate:"required"`
	DefaultLocale string              `json:"default_locale" bson:"default_locale" validate:"required,oneof=es en"`
	OpeningHours  map[string]DayHours `json:"opening_hours" bson:"opening_hours"`
}
