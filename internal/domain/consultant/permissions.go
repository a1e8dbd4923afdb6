package consultant

// Capability names one independently granted permission flag
type Capability string

const (
	CapabilityCreateProfile Capability = "create_profile"
	CapabilityEditProfile   Capability = "edit_profile"
	CapabilityViewProfile   Capability = "view_profile"
	CapabilityDeleteProfile Capability = "delete_profile"
)

var capabilities = []Capability{
	CapabilityCreateProfile,
	CapabilityEditProfile,
	CapabilityViewProfile,
	CapabilityDeleteProfile,
}

func Capabilities() []Capability {
	out := make([]Capability, len(capabilities))
	copy(out, capabilities)
	return out
}

func ParseCapability(s string) (Capability, bool) {
	for _, c := range capabilities {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Permissions are four independent flags with no implied hierarchy
type Permissions struct {
	CreateProfile bool `json:"create_profile"`
	EditProfile   bool `json:"edit_profile"`
	ViewProfile   bool `json:"view_profile"`
	DeleteProfile bool `json:"delete_profile"`
}

func DefaultPermissions() Permissions {
	return Permissions{ViewProfile: true}
}

func (p Permissions) Allows(c Capability) bool {
	switch c {
	case CapabilityCreateProfile:
		return p.CreateProfile
	case CapabilityEditProfile:
		return p.EditProfile
	case CapabilityViewProfile:
		return p.ViewProfile
	case CapabilityDeleteProfile:
		return p.DeleteProfile
	}
	return false
}

// PermissionPatch is a partial update, nil fields are left untouched
type PermissionPatch struct {
	CreateProfile *bool `json:"create_profile"`
	EditProfile   *bool `json:"edit_profile"`
	ViewProfile   *bool `json:"view_profile"`
	DeleteProfile *bool `json:"delete_profile"`
}

func (p PermissionPatch) IsEmpty() bool {
	return p.CreateProfile == nil && p.EditProfile == nil && p.ViewProfile == nil && p.DeleteProfile == nil
}

func (p Permissions) Merge(patch PermissionPatch) Permissions {
	if patch.CreateProfile != nil {
		p.CreateProfile = *patch.CreateProfile
	}
	if patch.EditProfile != nil {
		p.EditProfile = *patch.EditProfile
	}
	if patch.ViewProfile != nil {
		p.ViewProfile = *patch.ViewProfile
	}
	if patch.DeleteProfile != nil {
		p.DeleteProfile = *patch.DeleteProfile
	}
	return p
}

// Map renders the flags for audit details.
func (p Permissions) Map() map[string]any {
	return map[string]any{
		string(CapabilityCreateProfile): p.CreateProfile,
		string(CapabilityEditProfile):   p.EditProfile,
		string(CapabilityViewProfile):   p.ViewProfile,
		string(CapabilityDeleteProfile): p.DeleteProfile,
	}
}
