package domain

import (
	"encoding/json"
	"sort"
	"strings"
)

// CoreUserSchema is the SCIM core schema every user resource carries.
const CoreUserSchema = "urn:ietf:params:scim:schemas:core:2.0:User"

// User is the SCIM user resource as exchanged with the identity service.
//
// Extensions hold every top-level "urn:" attribute other than the core
// schema. Attributes keeps any other top-level key the struct does not
// model so that a decoded user re-encodes without losing data.
type User struct {
	ID                string       `json:"id,omitempty"`
	ExternalID        string       `json:"externalId,omitempty"`
	UserName          string       `json:"userName,omitempty"`
	Name              *Name        `json:"name,omitempty"`
	DisplayName       string       `json:"displayName,omitempty"`
	NickName          string       `json:"nickName,omitempty"`
	ProfileURL        string       `json:"profileUrl,omitempty"`
	Title             string       `json:"title,omitempty"`
	UserType          string       `json:"userType,omitempty"`
	PreferredLanguage string       `json:"preferredLanguage,omitempty"`
	Locale            string       `json:"locale,omitempty"`
	Timezone          string       `json:"timezone,omitempty"`
	Password          string       `json:"password,omitempty"`
	Active            *bool        `json:"active,omitempty"`
	Emails            []Email      `json:"emails,omitempty"`
	PhoneNumbers      []MultiValue `json:"phoneNumbers,omitempty"`
	Roles             []Role       `json:"roles,omitempty"`
	Schemas           []string     `json:"schemas,omitempty"`
	Meta              *Meta        `json:"meta,omitempty"`

	Extensions map[string]*Extension      `json:"-"`
	Attributes map[string]json.RawMessage `json:"-"`
}

type Name struct {
	Formatted       string `json:"formatted,omitempty"`
	FamilyName      string `json:"familyName,omitempty"`
	GivenName       string `json:"givenName,omitempty"`
	MiddleName      string `json:"middleName,omitempty"`
	HonorificPrefix string `json:"honorificPrefix,omitempty"`
	HonorificSuffix string `json:"honorificSuffix,omitempty"`
}

type Email struct {
	Value   string `json:"value,omitempty"`
	Display string `json:"display,omitempty"`
	Type    string `json:"type,omitempty"`
	Primary bool   `json:"primary,omitempty"`
}

type Role struct {
	Value   string `json:"value,omitempty"`
	Display string `json:"display,omitempty"`
	Type    string `json:"type,omitempty"`
	Primary bool   `json:"primary,omitempty"`
}

type MultiValue struct {
	Value   string `json:"value,omitempty"`
	Display string `json:"display,omitempty"`
	Type    string `json:"type,omitempty"`
	Primary bool   `json:"primary,omitempty"`
}

// Meta is the resource metadata. Attributes lists attribute paths that a
// partial update should remove.
type Meta struct {
	ResourceType string   `json:"resourceType,omitempty"`
	Created      string   `json:"created,omitempty"`
	LastModified string   `json:"lastModified,omitempty"`
	Location     string   `json:"location,omitempty"`
	Version      string   `json:"version,omitempty"`
	Attributes   []string `json:"attributes,omitempty"`
}

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// IsActive reports whether the account has been activated.
func (u *User) IsActive() bool {
	return u != nil && u.Active != nil && *u.Active
}

// Extension returns the extension registered under urn, if any. URNs
// compare case-insensitively.
func (u *User) Extension(urn string) (*Extension, bool) {
	if u == nil || u.Extensions == nil {
		return nil, false
	}
	if ext, ok := u.Extensions[urn]; ok {
		return ext, ext != nil
	}
	for key, ext := range u.Extensions {
		if strings.EqualFold(key, urn) {
			return ext, ext != nil
		}
	}
	return nil, false
}

// AddExtension attaches ext, replacing any extension with the same URN
// regardless of case.
func (u *User) AddExtension(ext *Extension) {
	if ext == nil {
		return
	}
	if u.Extensions == nil {
		u.Extensions = make(map[string]*Extension)
	}
	for key := range u.Extensions {
		if strings.EqualFold(key, ext.URN) {
			delete(u.Extensions, key)
		}
	}
	u.Extensions[ext.URN] = ext
}

// SendToEmail picks the address registration mails go to: the primary
// entry when one is flagged, otherwise the first entry with a value.
func (u *User) SendToEmail() (Email, bool) {
	if u == nil {
		return Email{}, false
	}
	for _, email := range u.Emails {
		if email.Primary && strings.TrimSpace(email.Value) != "" {
			return email, true
		}
	}
	for _, email := range u.Emails {
		if strings.TrimSpace(email.Value) != "" {
			return email, true
		}
	}
	return Email{}, false
}

// Clone returns a deep copy of the user.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	out := *u
	if u.Name != nil {
		name := *u.Name
		out.Name = &name
	}
	if u.Active != nil {
		out.Active = Bool(*u.Active)
	}
	if u.Meta != nil {
		meta := *u.Meta
		meta.Attributes = append([]string(nil), u.Meta.Attributes...)
		out.Meta = &meta
	}
	out.Emails = append([]Email(nil), u.Emails...)
	out.PhoneNumbers = append([]MultiValue(nil), u.PhoneNumbers...)
	out.Roles = append([]Role(nil), u.Roles...)
	out.Schemas = append([]string(nil), u.Schemas...)

	if u.Extensions != nil {
		out.Extensions = make(map[string]*Extension, len(u.Extensions))
		for urn, ext := range u.Extensions {
			out.Extensions[urn] = ext.Clone()
		}
	}
	if u.Attributes != nil {
		out.Attributes = make(map[string]json.RawMessage, len(u.Attributes))
		for k, v := range u.Attributes {
			out.Attributes[k] = append(json.RawMessage(nil), v...)
		}
	}
	return &out
}

type userAlias User

// coreUserKeys are the lowercased names of the modelled attributes. SCIM
// attribute names are case-insensitive, so lookups go through isCoreKey.
var coreUserKeys = map[string]struct{}{
	"id": {}, "externalid": {}, "username": {}, "name": {}, "displayname": {},
	"nickname": {}, "profileurl": {}, "title": {}, "usertype": {},
	"preferredlanguage": {}, "locale": {}, "timezone": {}, "password": {},
	"active": {}, "emails": {}, "phonenumbers": {}, "roles": {}, "schemas": {},
	"meta": {},
}

func isCoreKey(key string) bool {
	_, ok := coreUserKeys[strings.ToLower(key)]
	return ok
}

func isExtensionKey(key string) bool {
	return len(key) > len("urn:") &&
		strings.EqualFold(key[:len("urn:")], "urn:") &&
		!strings.EqualFold(key, CoreUserSchema)
}

func (u User) MarshalJSON() ([]byte, error) {
	alias := userAlias(u)
	if len(u.Extensions) > 0 {
		alias.Schemas = u.schemasWithExtensions()
	}

	core, err := json.Marshal(alias)
	if err != nil {
		return nil, err
	}
	if len(u.Extensions) == 0 && len(u.Attributes) == 0 {
		return core, nil
	}

	merged := make(map[string]json.RawMessage)
	if err := json.Unmarshal(core, &merged); err != nil {
		return nil, err
	}
	for key, raw := range u.Attributes {
		if isCoreKey(key) || isExtensionKey(key) {
			continue
		}
		merged[key] = raw
	}
	for urn, ext := range u.Extensions {
		if ext == nil {
			continue
		}
		raw, err := json.Marshal(ext)
		if err != nil {
			return nil, err
		}
		merged[urn] = raw
	}
	return json.Marshal(merged)
}

func (u *User) UnmarshalJSON(data []byte) error {
	var alias userAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*u = User(alias)
	for key, value := range raw {
		// Case variants of core keys were already decoded into the typed
		// fields and must not come back as extra attributes.
		if isCoreKey(key) || strings.EqualFold(key, CoreUserSchema) {
			continue
		}
		if isExtensionKey(key) {
			ext := NewExtension(key)
			if err := json.Unmarshal(value, &ext.Fields); err != nil {
				return err
			}
			u.AddExtension(ext)
			continue
		}
		if u.Attributes == nil {
			u.Attributes = make(map[string]json.RawMessage)
		}
		u.Attributes[key] = value
	}
	return nil
}

func (u User) schemasWithExtensions() []string {
	schemas := append([]string(nil), u.Schemas...)
	seen := make(map[string]struct{}, len(schemas))
	for _, s := range schemas {
		seen[strings.ToLower(s)] = struct{}{}
	}
	if _, ok := seen[strings.ToLower(CoreUserSchema)]; !ok {
		schemas = append([]string{CoreUserSchema}, schemas...)
	}

	urns := make([]string, 0, len(u.Extensions))
	for urn := range u.Extensions {
		if _, ok := seen[strings.ToLower(urn)]; !ok {
			urns = append(urns, urn)
		}
	}
	sort.Strings(urns)
	return append(schemas, urns...)
}
