package convert

import (
	"fmt"

	"gitea.jw6.us/james/calconv/internal/change"
	"gitea.jw6.us/james/calconv/internal/domain"
)

// commit applies the queued collection deltas to the merge target in one
// pass. Scalar changes were written as the loop ran; collections are
// deferred so the add-value rule sees a stable stored set while the wire
// properties are still being walked.
func (cv *conversion) commit() error {
	for _, entry := range cv.table.Entries() {
		if len(entry.Added) == 0 && len(entry.Removed) == 0 {
			continue
		}
		if err := cv.commitEntry(entry); err != nil {
			return err
		}
	}
	return nil
}

func (cv *conversion) commitEntry(entry *change.Entry) error {
	switch entry.Index {
	case change.PropCategories:
		cats := cv.target.Categories()
		for _, v := range entry.Added {
			cats = append(cats, v.(*domain.Category))
		}
		for _, v := range entry.Removed {
			cats = removeCategory(cats, v.(*domain.Category))
		}
		cv.target.SetCategories(cats)

	case change.PropContact:
		contacts := cv.target.Contacts()
		for _, v := range entry.Added {
			contacts = append(contacts, v.(*domain.Contact))
		}
		for _, v := range entry.Removed {
			contacts = removeContact(contacts, v.(*domain.Contact))
		}
		cv.target.SetContacts(contacts)

	case change.PropComment:
		cv.target.SetComments(applyStringValues(cv.target.Comments(), entry))
	case change.PropResources:
		cv.target.SetResources(applyStringValues(cv.target.Resources(), entry))

	case change.PropAttach:
		atts := cv.target.Attachments()
		for _, v := range entry.Added {
			atts = append(atts, v.(*domain.Attachment))
		}
		cv.target.SetAttachments(atts)

	case change.PropRRule:
		cv.master.RRules = applyStringValues(cv.master.RRules, entry)
	case change.PropExRule:
		cv.master.ExRules = applyStringValues(cv.master.ExRules, entry)
	case change.PropRDate:
		cv.master.RDates = applyDates(cv.master.RDates, entry)
	case change.PropExDate:
		cv.master.ExDates = applyDates(cv.master.ExDates, entry)

	case change.PropXProp:
		xs := cv.target.XProps()
		for _, v := range entry.Added {
			xs = append(xs, v.(domain.XProp))
		}
		cv.target.SetXProps(xs)

	default:
		return fmt.Errorf("uid %s: no collection commit rule for %s", cv.uid, entry.Index)
	}
	return nil
}

func applyStringValues(cur []string, entry *change.Entry) []string {
	for _, v := range entry.Added {
		cur = append(cur, v.(string))
	}
	for _, v := range entry.Removed {
		s := v.(string)
		for i, existing := range cur {
			if existing == s {
				cur = append(cur[:i], cur[i+1:]...)
				break
			}
		}
	}
	return cur
}

func applyDates(cur []*domain.DateTime, entry *change.Entry) []*domain.DateTime {
	for _, v := range entry.Added {
		cur = append(cur, v.(*domain.DateTime))
	}
	for _, v := range entry.Removed {
		dt := v.(*domain.DateTime)
		for i, existing := range cur {
			if existing.Equal(dt) {
				cur = append(cur[:i], cur[i+1:]...)
				break
			}
		}
	}
	return cur
}

func removeCategory(cats []*domain.Category, cat *domain.Category) []*domain.Category {
	for i, c := range cats {
		if c.Word == cat.Word && c.Language == cat.Language {
			return append(cats[:i], cats[i+1:]...)
		}
	}
	return cats
}

func removeContact(contacts []*domain.Contact, contact *domain.Contact) []*domain.Contact {
	for i, c := range contacts {
		if c.Name == contact.Name {
			return append(contacts[:i], contacts[i+1:]...)
		}
	}
	return contacts
}
