package crm

import "evictioncrm/pkg/domain"

// ReduceOwners owns Owners.
func ReduceOwners(st State, action Action, env Env) Patch {
	switch a := action.(type) {
	case AddOwnerAction:
		owner := cloneOwner(a.Owner)
		owner.ID = env.NewID()
		owner.CreatedAt = env.Now
		return Patch{
			Owners:  appendCopy(st.Owners, owner),
			Changes: created(domain.EntityOwner, cloneOwner(owner)),
		}
	case UpdateOwnerAction:
		i := indexOf(st.Owners, a.Owner.ID, ownerID)
		if i < 0 {
			return notFound(domain.EntityOwner, a.Owner.ID)
		}
		before := st.Owners[i]
		owner := cloneOwner(a.Owner)
		owner.CreatedAt = before.CreatedAt
		return Patch{
			Owners:  replaceAt(st.Owners, i, owner),
			Changes: updated(domain.EntityOwner, cloneOwner(before), cloneOwner(owner)),
		}
	}
	return Patch{}
}
