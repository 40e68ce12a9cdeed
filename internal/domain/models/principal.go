package models

// Role names resolved by the upstream gateway.
const (
	RoleAdmin             = "admin"
	RoleProcurement       = "procurement"
	RoleQCAnalyst         = "qc_analyst"
	RoleQCSupervisor      = "qc_supervisor"
	RoleQAManager         = "qa_manager"
	RoleWarehouseOperator = "warehouse_operator"
)

// Principal is the authenticated caller as resolved by the gateway. Token
// verification and role resolution happen upstream; services trust this.
type Principal struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

// HasRole reports whether the principal carries the given role.
func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the principal carries at least one of the roles.
func (p Principal) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if p.HasRole(r) {
			return true
		}
	}
	return false
}
