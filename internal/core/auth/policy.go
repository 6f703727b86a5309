package auth

import "go-gin-gorm-auth/internal/domain"

// Authorize 先认证后授权：actor 为空一律视为未登录
func Authorize(actor *domain.User, required domain.Role) error {
	if actor == nil || actor.ID == "" {
		return domain.ErrUnauthenticated
	}
	if required == domain.RoleAdmin && actor.Role != domain.RoleAdmin {
		return domain.ErrForbidden
	}
	return nil
}

// AuthorizeAny 满足任一角色即可；roles 为空只要求已登录
func AuthorizeAny(actor *domain.User, roles ...domain.Role) error {
	if len(roles) == 0 {
		return Authorize(actor, domain.RoleUser)
	}
	var err error
	for _, r := range roles {
		if err = Authorize(actor, r); err == nil {
			return nil
		}
	}
	return err
}
