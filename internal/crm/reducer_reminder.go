package crm

import "evictioncrm/pkg/domain"

// ReduceReminders owns Reminders and CaseReminders. Completion is one-way.
func ReduceReminders(st State, action Action, env Env) Patch {
	switch a := action.(type) {
	case AddReminderAction:
		reminder := a.Reminder
		reminder.ID = env.NewID()
		p := Patch{
			Reminders: appendCopy(st.Reminders, reminder),
			Changes:   created(domain.EntityReminder, reminder),
		}
		if st.hasCase(reminder.CaseID) {
			p.CaseReminders = appendToIndex(st.CaseReminders, reminder.CaseID, reminder.ID)
		}
		return p
	case UpdateReminderAction:
		i := indexOf(st.Reminders, a.Reminder.ID, reminderID)
		if i < 0 {
			return notFound(domain.EntityReminder, a.Reminder.ID)
		}
		before := st.Reminders[i]
		reminder := a.Reminder
		reminder.CaseID = before.CaseID
		reminder.Completed = before.Completed || reminder.Completed
		return Patch{
			Reminders: replaceAt(st.Reminders, i, reminder),
			Changes:   updated(domain.EntityReminder, before, reminder),
		}
	case CompleteReminderAction:
		i := indexOf(st.Reminders, a.ID, reminderID)
		if i < 0 {
			return notFound(domain.EntityReminder, a.ID)
		}
		before := st.Reminders[i]
		if before.Completed {
			return Patch{}
		}
		reminder := before
		reminder.Completed = true
		return Patch{
			Reminders: replaceAt(st.Reminders, i, reminder),
			Changes:   updated(domain.EntityReminder, before, reminder),
		}
	}
	return Patch{}
}
