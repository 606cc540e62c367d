package auth

// AnonymousKey is the device key of the signed-out identity.
const AnonymousKey = "anon"

// Identity is the acting user. The zero value is the anonymous identity.
type Identity struct {
	UserID string
}

// Anonymous returns the signed-out identity.
func Anonymous() Identity {
	return Identity{}
}

// User returns the identity of a signed-in user.
func User(id string) Identity {
	return Identity{UserID: id}
}

// SignedIn reports whether the identity belongs to a user.
func (i Identity) SignedIn() bool {
	return i.UserID != ""
}

// DeviceKey is the identity component of device store keys.
func (i Identity) DeviceKey() string {
	if !i.SignedIn() {
		return AnonymousKey
	}
	return i.UserID
}

func (i Identity) String() string {
	if !i.SignedIn() {
		return "anonymous"
	}
	return "user:" + i.UserID
}
