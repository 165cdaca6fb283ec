package models

// NotificationSettings is the member's delivery preference record. It is
// stored by the backend; this client never delivers notifications itself.
type NotificationSettings struct {
	PushEnabled     bool `json:"push_enabled"`
	EmailEnabled    bool `json:"email_enabled"`
	SMSEnabled      bool `json:"sms_enabled"`
	WhatsAppEnabled bool `json:"whatsapp_enabled"`
	DealsAlerts     bool `json:"deals_alerts"`
	PointsAlerts    bool `json:"points_alerts"`
	TierAlerts      bool `json:"tier_alerts"`
}

// DefaultNotificationSettings mirrors the backend defaults for a new member.
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		PushEnabled:  true,
		EmailEnabled: true,
		DealsAlerts:  true,
		PointsAlerts: true,
		TierAlerts:   true,
	}
}

// NotificationSettingsPatch carries a partial update; nil fields are left
// untouched. JSON omits nil fields so the REST body only names changed columns.
type NotificationSettingsPatch struct {
	PushEnabled     *bool `json:"push_enabled,omitempty"`
	EmailEnabled    *bool `json:"email_enabled,omitempty"`
	SMSEnabled      *bool `json:"sms_enabled,omitempty"`
	WhatsAppEnabled *bool `json:"whatsapp_enabled,omitempty"`
	DealsAlerts     *bool `json:"deals_alerts,omitempty"`
	PointsAlerts    *bool `json:"points_alerts,omitempty"`
	TierAlerts      *bool `json:"tier_alerts,omitempty"`
}

// Apply returns s with the non-nil patch fields applied.
func (p NotificationSettingsPatch) Apply(s NotificationSettings) NotificationSettings {
	set := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}
	set(&s.PushEnabled, p.PushEnabled)
	set(&s.EmailEnabled, p.EmailEnabled)
	set(&s.SMSEnabled, p.SMSEnabled)
	set(&s.WhatsAppEnabled, p.WhatsAppEnabled)
	set(&s.DealsAlerts, p.DealsAlerts)
	set(&s.PointsAlerts, p.PointsAlerts)
	set(&s.TierAlerts, p.TierAlerts)
	return s
}

// Appearance is the locally persisted light/dark preference.
type Appearance string

const (
	AppearanceDark  Appearance = "dark"
	AppearanceLight Appearance = "light"
)

// Toggle returns the opposite appearance.
func (a Appearance) Toggle() Appearance {
	if a == AppearanceLight {
		return AppearanceDark
	}
	return AppearanceLight
}
