package models

import "time"

// Profile is the member row. PointsBalance is spendable, TotalPointsEarned
// is lifetime and should never be below PointsBalance.
type Profile struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	Name              string    `json:"name"`
	Surname           string    `json:"surname"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone"`
	ProfilePictureURL *string   `json:"profile_picture_url"`
	TierID            *string   `json:"tier_id"`
	PointsBalance     int64     `json:"points_balance"`
	TotalPointsEarned int64     `json:"total_points_earned"`
	Barcode           *string   `json:"barcode"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// DisplayName joins name and surname, falling back to "Member".
func (p *Profile) DisplayName() string {
	if p == nil {
		return "Member"
	}
	name := p.Name
	if p.Surname != "" {
		if name != "" {
			name += " "
		}
		name += p.Surname
	}
	if name == "" {
		return "Member"
	}
	return name
}

// ProfileUpdate holds the member-editable profile fields.
type ProfileUpdate struct {
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Phone   string `json:"phone"`
}

// Patch converts the update into a ProfilePatch.
func (u ProfileUpdate) Patch() ProfilePatch {
	return ProfilePatch{Name: &u.Name, Surname: &u.Surname, Phone: &u.Phone}
}

// ProfilePatch is a partial profile update; nil fields are left untouched.
type ProfilePatch struct {
	Name              *string `json:"name,omitempty"`
	Surname           *string `json:"surname,omitempty"`
	Phone             *string `json:"phone,omitempty"`
	ProfilePictureURL *string `json:"profile_picture_url,omitempty"`
}

// Tier is a membership level. SortOrder defines the ascending total order.
type Tier struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	MinPoints          int64    `json:"min_points"`
	DiscountPercentage float64  `json:"discount_percentage"`
	Benefits           []string `json:"benefits"`
	SortOrder          int      `json:"sort_order"`
}
