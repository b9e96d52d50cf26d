package access

import (
	"bitwise74/media-api/internal/model"
	"bitwise74/media-api/pkg/security"
)

// CheckFilePassword gates content serving on a file-level access password.
// The owner and media managers skip the prompt, they can already read and
// rewrite the hash through the edit surface. A failed check never counts a
// view.
func CheckFilePassword(argon *security.ArgonHash, f *model.File, caller Caller, supplied string) (Decision, error) {
	if f.AccessPassword == "" {
		return Allow(), nil
	}

	if (!caller.Anonymous() && caller.ID == f.OwnerID) || caller.Caps.ManageMedia {
		return Allow(), nil
	}

	if supplied == "" {
		return Deny(DenyPasswordRequired), nil
	}

	ok, err := argon.VerifyPasswd(supplied, f.AccessPassword)
	if err != nil {
		return Deny(DenyPasswordInvalid), err
	}

	if !ok {
		return Deny(DenyPasswordInvalid), nil
	}

	return Allow(), nil
}
