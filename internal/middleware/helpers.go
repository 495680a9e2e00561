// internal/middleware/helpers.go
package middleware

import "github.com/gin-gonic/gin"

// GetStaffEmail gets the authenticated staff email from context
func GetStaffEmail(c *gin.Context) (string, bool) {
	v, exists := c.Get("staff_email")
	if !exists {
		return "", false
	}
	email, ok := v.(string)
	return email, ok
}

// GetRoles gets user roles from context
func GetRoles(c *gin.Context) []string {
	roles, exists := c.Get("roles")
	if !exists {
		return []string{}
	}

	rolesList, ok := roles.([]string)
	if !ok {
		return []string{}
	}

	return rolesList
}

// HasRole checks if the authenticated caller carries a role
func HasRole(c *gin.Context, role string) bool {
	for _, r := range GetRoles(c) {
		if r == role {
			return true
		}
	}
	return false
}

// IsAuthenticated checks if request is authenticated
func IsAuthenticated(c *gin.Context) bool {
	_, exists := c.Get("staff_email")
	return exists
}
