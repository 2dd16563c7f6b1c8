package crm

import (
	"fmt"

	"evictioncrm/pkg/domain"
)

// ReduceCases owns Cases. Besides case actions it refreshes UpdatedAt on the
// parent case when a document, note or reminder is attached to it.
func ReduceCases(st State, action Action, env Env) Patch {
	switch a := action.(type) {
	case AddCaseAction:
		c := stripCase(a.Case)
		if c.Stage == 0 {
			c.Stage = domain.StageNewLead
		}
		if !c.Stage.Valid() {
			return rejectStage(c.Stage)
		}
		c.ID = env.NewID()
		c.CreatedAt = env.Now
		c.UpdatedAt = env.Now
		return Patch{
			Cases:   appendCopy(st.Cases, c),
			Changes: created(domain.EntityCase, c),
		}
	case UpdateCaseAction:
		i := indexOf(st.Cases, a.Case.ID, caseID)
		if i < 0 {
			return notFound(domain.EntityCase, a.Case.ID)
		}
		before := st.Cases[i]
		c := stripCase(a.Case)
		if c.Stage == 0 {
			c.Stage = before.Stage
		}
		if !c.Stage.Valid() {
			return rejectStage(c.Stage)
		}
		c.CreatedAt = before.CreatedAt
		c.UpdatedAt = env.Now
		return Patch{
			Cases:   replaceAt(st.Cases, i, c),
			Changes: updated(domain.EntityCase, before, c),
		}
	case UpdateCaseStageAction:
		if !a.Stage.Valid() {
			return rejectStage(a.Stage)
		}
		i := indexOf(st.Cases, a.CaseID, caseID)
		if i < 0 {
			return notFound(domain.EntityCase, a.CaseID)
		}
		return touchCase(st, i, env, func(c *domain.Case) { c.Stage = a.Stage })
	case AdvanceCaseStageAction:
		i := indexOf(st.Cases, a.CaseID, caseID)
		if i < 0 {
			return notFound(domain.EntityCase, a.CaseID)
		}
		next, ok := st.Cases[i].Stage.Next()
		if !ok {
			return Patch{Reject: ErrTerminalStage}
		}
		return touchCase(st, i, env, func(c *domain.Case) { c.Stage = next })
	case AddDocumentAction:
		return touchParent(st, a.Document.CaseID, env)
	case AddNoteAction:
		return touchParent(st, a.Note.CaseID, env)
	case AddReminderAction:
		return touchParent(st, a.Reminder.CaseID, env)
	}
	return Patch{}
}

func touchParent(st State, id string, env Env) Patch {
	if id == "" {
		return Patch{}
	}
	i := indexOf(st.Cases, id, caseID)
	if i < 0 {
		return Patch{}
	}
	return touchCase(st, i, env, nil)
}

func touchCase(st State, i int, env Env, mutate func(*domain.Case)) Patch {
	before := st.Cases[i]
	c := stripCase(before)
	if mutate != nil {
		mutate(&c)
	}
	c.UpdatedAt = env.Now
	return Patch{
		Cases:   replaceAt(st.Cases, i, c),
		Changes: updated(domain.EntityCase, before, c),
	}
}

func rejectStage(stage domain.CaseStage) Patch {
	return Patch{Reject: domain.ValidationError{
		Field:   "stage",
		Message: fmt.Sprintf("%d is outside %d..%d", int(stage), int(domain.MinStage), int(domain.MaxStage)),
	}}
}
