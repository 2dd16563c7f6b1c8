package crm

import "evictioncrm/pkg/domain"

// ReduceProperties owns Properties. OwnerID is stored as given.
func ReduceProperties(st State, action Action, env Env) Patch {
	switch a := action.(type) {
	case AddPropertyAction:
		property := cloneProperty(a.Property)
		property.ID = env.NewID()
		return Patch{
			Properties: appendCopy(st.Properties, property),
			Changes:    created(domain.EntityProperty, cloneProperty(property)),
		}
	case UpdatePropertyAction:
		i := indexOf(st.Properties, a.Property.ID, propertyID)
		if i < 0 {
			return notFound(domain.EntityProperty, a.Property.ID)
		}
		property := cloneProperty(a.Property)
		return Patch{
			Properties: replaceAt(st.Properties, i, property),
			Changes:    updated(domain.EntityProperty, cloneProperty(st.Properties[i]), cloneProperty(property)),
		}
	}
	return Patch{}
}
