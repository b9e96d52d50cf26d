package access

import "bitwise74/media-api/internal/model"

// CapabilitiesFor maps a stored role name to its capability set. Unknown
// roles get no capabilities.
func CapabilitiesFor(role string) Capabilities {
	switch role {
	case model.RoleAdmin:
		return Capabilities{
			ManageMedia:  true,
			EditMedia:    true,
			ManageGroups: true,
		}
	case model.RoleEditor:
		return Capabilities{
			EditMedia: true,
		}
	default:
		return Capabilities{}
	}
}
