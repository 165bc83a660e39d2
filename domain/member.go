package domain

// MemberRole gates workspace administration.
type MemberRole string

const (
	RoleAdmin  MemberRole = "admin"
	RoleMember MemberRole = "member"
)

// Member ties a user to a workspace. Every endpoint in the API checks for a
// member record before touching workspace data.
type Member struct {
	WorkspaceID string     `json:"workspaceId"`
	UserID      string     `json:"userId"`
	Role        MemberRole `json:"role"`
	CreatedAt   string     `json:"createdAt"`
}

// IsAdmin reports whether the member may manage other members.
func (m *Member) IsAdmin() bool {
	return m.Role == RoleAdmin
}
