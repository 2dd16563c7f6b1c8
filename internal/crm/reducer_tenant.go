package crm

import "evictioncrm/pkg/domain"

// ReduceTenants owns Tenants.
func ReduceTenants(st State, action Action, env Env) Patch {
	switch a := action.(type) {
	case AddTenantAction:
		tenant := cloneTenant(a.Tenant)
		tenant.ID = env.NewID()
		return Patch{
			Tenants: appendCopy(st.Tenants, tenant),
			Changes: created(domain.EntityTenant, cloneTenant(tenant)),
		}
	case UpdateTenantAction:
		i := indexOf(st.Tenants, a.Tenant.ID, tenantID)
		if i < 0 {
			return notFound(domain.EntityTenant, a.Tenant.ID)
		}
		tenant := cloneTenant(a.Tenant)
		return Patch{
			Tenants: replaceAt(st.Tenants, i, tenant),
			Changes: updated(domain.EntityTenant, cloneTenant(st.Tenants[i]), cloneTenant(tenant)),
		}
	}
	return Patch{}
}
