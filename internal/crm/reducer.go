package crm

// Reducer computes the partial snapshot an action produces for the keys it owns.
type Reducer func(State, Action, Env) Patch

// Reducers lists the per-entity reducers in the order the root reducer runs them.
var Reducers = []Reducer{
	ReduceOwners,
	ReduceTenants,
	ReduceProperties,
	ReduceCases,
	ReduceDocuments,
	ReduceNotes,
	ReduceReminders,
}

// Reduce runs every per-entity reducer against the same snapshot and merges
// their patches. Unrecognised actions yield an empty patch.
func Reduce(st State, action Action, env Env) Patch {
	var merged Patch
	for _, reduce := range Reducers {
		merged = merged.merge(reduce(st, action, env))
	}
	return merged
}
