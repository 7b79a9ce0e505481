package domain

import "time"

// TouristProfile is the marketplace profile keyed by phone number. It is
// created by the first successful phone verification and updated in place on
// every subsequent one.
type TouristProfile struct {
	Phone              string            `json:"phone" dynamodbav:"phone"`
	TouristID          string            `json:"tourist_id" dynamodbav:"tourist_id"`
	FirstName          string            `json:"first_name,omitempty" dynamodbav:"first_name"`
	PhoneVerified      bool              `json:"phone_verified" dynamodbav:"phone_verified"`
	Preferences        map[string]string `json:"preferences" dynamodbav:"preferences"`
	BookingsCount      int               `json:"bookings_count" dynamodbav:"bookings_count"`
	SavedArtisansCount int               `json:"saved_artisans_count" dynamodbav:"saved_artisans_count"`
	WhatsAppOptIn      bool              `json:"whatsapp_opt_in" dynamodbav:"whatsapp_opt_in"`
	MarketingOptIn     bool              `json:"marketing_opt_in" dynamodbav:"marketing_opt_in"`
	FirstVerifiedAt    time.Time         `json:"first_verified_at" dynamodbav:"first_verified_at"`
	LastActive         time.Time         `json:"last_active" dynamodbav:"last_active"`
	CreatedAt          time.Time         `json:"created_at" dynamodbav:"created_at"`
}

// DefaultPreferences are applied when a profile is created by verification.
// The tourist overrides them later through the marketplace app.
func DefaultPreferences() map[string]string {
	return map[string]string{
		"language":  "en",
		"interests": "",
	}
}
