package authz

import (
	"fmt"

	"github.com/crewpay-next/internal/constants"
)

const payrollObjectPrefix = "/admin/payroll"

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string
	Inherits []string
	Policies []Policy
}

// BuiltinRoleSeeds 结算系统预置角色矩阵
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: constants.OperatorRoleViewer,
			Policies: []Policy{
				{Object: payrollObjectPrefix + "/*", Action: "GET"},
			},
		},
		{
			Role:     constants.OperatorRoleManager,
			Inherits: []string{constants.OperatorRoleViewer},
			Policies: []Policy{
				{Object: payrollObjectPrefix + "/commission-entries", Action: "POST"},
				{Object: payrollObjectPrefix + "/commission-entries/:id/status", Action: "PATCH"},
				{Object: payrollObjectPrefix + "/commission-entries/materialize", Action: "POST"},
			},
		},
		{
			Role:     constants.OperatorRoleAdmin,
			Inherits: []string{constants.OperatorRoleManager},
			Policies: []Policy{
				{Object: payrollObjectPrefix + "/*", Action: "*"},
			},
		},
	}
}

// BootstrapBuiltinRoles 初始化预置角色与默认策略
func (s *Service) BootstrapBuiltinRoles() error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}

	for _, seed := range BuiltinRoleSeeds() {
		role, err := s.EnsureRole(seed.Role)
		if err != nil {
			return fmt.Errorf("create builtin role failed: %w", err)
		}

		for _, parent := range seed.Inherits {
			parentRole, err := NormalizeRole(parent)
			if err != nil {
				return err
			}
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole); err != nil {
				return fmt.Errorf("link role inheritance failed: %w", err)
			}
		}

		for _, policy := range seed.Policies {
			action := NormalizeAction(policy.Action)
			if action == "" {
				return fmt.Errorf("builtin policy action is required")
			}
			if _, err := s.enforcer.AddPolicy(role, NormalizeObject(policy.Object), action); err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
		}
	}
	return nil
}
