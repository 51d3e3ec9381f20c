package domain

import "encoding/json"

// UpdateUser describes a partial user update: attributes to set and
// attribute paths to remove.
type UpdateUser struct {
	Active           *bool
	DeleteAttributes []string
}

// DeleteExtensionField schedules removal of a single extension field.
func (u *UpdateUser) DeleteExtensionField(urn, field string) *UpdateUser {
	u.DeleteAttributes = append(u.DeleteAttributes, urn+"."+field)
	return u
}

func (u *UpdateUser) UpdateActive(active bool) *UpdateUser {
	u.Active = Bool(active)
	return u
}

// Resource renders the update as the user document sent with PATCH.
// Removed attributes travel in meta.attributes.
func (u UpdateUser) Resource() *User {
	user := &User{
		Schemas: []string{CoreUserSchema},
		Active:  u.Active,
	}
	if len(u.DeleteAttributes) > 0 {
		user.Meta = &Meta{Attributes: append([]string(nil), u.DeleteAttributes...)}
	}
	return user
}

func (u UpdateUser) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.Resource())
}
