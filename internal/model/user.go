package model

type Role string

const (
	RoleParent Role = "parent"
	RoleChild  Role = "child"
)

func (r Role) Valid() bool {
	return r == RoleParent || r == RoleChild
}

// User is the authenticated identity held by the session store and
// mirrored to device storage as JSON.
type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Role        Role   `json:"role"`
	Nickname    string `json:"nickname,omitempty"`
	ParentEmail string `json:"parentEmail,omitempty"`
	FamilyID    string `json:"familyId"`
}

// DisplayName prefers the nickname over the username.
func (u User) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Username
}
