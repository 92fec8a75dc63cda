// Package override maintains the master-event/override-proxy relationship:
// it resolves a (uid, recurrence-id) pair to a concrete instance,
// synthesizes suppressed placeholder masters when only instances are
// observed, and prunes overrides an update stopped mentioning.
package override

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"gitea.jw6.us/james/calconv/internal/domain"
	"gitea.jw6.us/james/calconv/internal/store"
)

// ErrMoreThanOneMatch is returned when the store holds more than one
// master for a uid; callers surface it as their own typed condition.
var ErrMoreThanOneMatch = errors.New("more than one entity matched uid")

// Tree resolves recurrence instances against batch and store state.
type Tree struct {
	cb  store.Callback
	log *zap.Logger
}

func New(cb store.Callback, log *zap.Logger) *Tree {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tree{cb: cb, log: log}
}

// Resolution is the outcome of resolving an instance-bearing component.
type Resolution struct {
	Master *domain.Entity
	Proxy  *domain.OverrideProxy

	// Synthesized means the master is a suppressed placeholder created
	// in this call; FetchedMaster means it came from the store rather
	// than the batch. Either way the caller returns the NotFound
	// sentinel rather than the override as a top-level result.
	Synthesized   bool
	FetchedMaster bool
}

// FindMasterInBatch scans the current conversion batch for an unsaved
// master with the given uid. Batches are sorted master-first when the
// producer can guarantee it; this lookup is the safety net for masters
// arriving after their overrides in one payload.
func FindMasterInBatch(uid string, batch []*domain.Entity) *domain.Entity {
	for _, e := range batch {
		if e.UID == uid && e.RecurrenceID == "" {
			return e
		}
	}
	return nil
}

// MarkRetrieved flags every override currently attached to a master as
// store-retrieved, so the pruning pass can tell them from ones the batch
// created.
func MarkRetrieved(master *domain.Entity) {
	for _, ov := range master.Overrides {
		ov.Retrieved = true
	}
}

// Resolve finds or creates the instance for a recurrence id, per the
// resolution order: current batch, then store (marking the master
// instance-only), then a synthesized suppressed master.
func (t *Tree) Resolve(ctx context.Context, typ domain.EntityType, colPath, uid string, rid *domain.DateTime, ridRange string, batch []*domain.Entity) (*Resolution, error) {
	if ridRange != "" {
		// RANGE=THISANDFUTURE/THISANDPRIOR is recorded but never
		// expanded; upstream behavior.
		t.log.Debug("recurrence-id range qualifier ignored",
			zap.String("uid", uid), zap.String("range", ridRange))
	}

	if master := FindMasterInBatch(uid, batch); master != nil {
		proxy := FindOverride(master, rid, ridRange, true)
		return &Resolution{Master: master, Proxy: proxy}, nil
	}

	ents, err := t.cb.GetEvents(ctx, colPath, uid)
	switch {
	case err == nil:
		if len(ents) > 1 {
			return nil, fmt.Errorf("resolve %s: %w", uid, ErrMoreThanOneMatch)
		}
		master := ents[0]
		// Instance-only: a later pruning pass must not discard other
		// overrides absent from this batch, because the caller only
		// meant to touch the instances it sent.
		master.InstanceOnly = true
		MarkRetrieved(master)
		proxy := FindOverride(master, rid, ridRange, true)
		return &Resolution{Master: master, Proxy: proxy, FetchedMaster: true}, nil

	case errors.Is(err, store.ErrNotFound):
		master := t.synthesizeMaster(typ, colPath, uid, rid)
		proxy := FindOverride(master, rid, ridRange, true)
		t.log.Info("synthesized suppressed master",
			zap.String("uid", uid), zap.String("rid", rid.Value))
		return &Resolution{Master: master, Proxy: proxy, Synthesized: true}, nil

	default:
		return nil, fmt.Errorf("fetch %s/%s: %w", colPath, uid, err)
	}
}

// synthesizeMaster builds the suppressed placeholder for a series whose
// definition was never observed: a sentinel start mirroring the recurrence
// id's flavor, recurring forced on, status MASTER-SUPPRESSED.
func (t *Tree) synthesizeMaster(typ domain.EntityType, colPath, uid string, rid *domain.DateTime) *domain.Entity {
	return &domain.Entity{
		Type:      typ,
		UID:       uid,
		ColPath:   colPath,
		Owner:     t.cb.CurrentPrincipal(),
		Start:     domain.SentinelStart(rid),
		EndType:   domain.EndTypeNone,
		Status:    domain.StatusMasterSuppressed,
		Recurring: true,
		NewEntity: true,
	}
}

// FindOverride returns the proxy for a recurrence id beneath a master,
// creating the override when asked. A nil return means the override does
// not exist and creation was not requested.
func FindOverride(master *domain.Entity, rid *domain.DateTime, ridRange string, create bool) *domain.OverrideProxy {
	ov := master.FindOverrideEntry(rid.Value)
	if ov == nil {
		if !create {
			return nil
		}
		ov = &domain.Override{
			RecurrenceID:    rid.Value,
			RecurrenceRange: ridRange,
		}
		ov.Fields.Start = rid.Clone()
		master.AddOverrideEntry(ov)
	}
	ov.Touched = true
	return domain.NewProxy(master, ov)
}

// Prune removes overrides that were retrieved at the start of the
// reconciliation but never mentioned by the batch. Skipped entirely when
// the batch was instance-only. An override carrying another user's private
// data (alarms, per-user transparency) is stripped of the current user's
// data instead of deleted, and only removed once no per-user data remains.
// Returns the recurrence ids actually removed.
func (t *Tree) Prune(master *domain.Entity, currentUser string) []string {
	if master.InstanceOnly {
		return nil
	}

	var removed []string
	for rid, ov := range master.Overrides {
		if !ov.Retrieved || ov.Touched {
			continue
		}
		stripUserData(ov, currentUser)
		if hasForeignUserData(ov, currentUser) {
			t.log.Debug("override kept for foreign per-user data",
				zap.String("uid", master.UID), zap.String("rid", rid))
			continue
		}
		master.RemoveOverrideEntry(rid)
		removed = append(removed, rid)
	}
	sort.Strings(removed)
	return removed
}

// stripUserData drops the current user's alarms and per-user transparency
// from an override slated for deletion.
func stripUserData(ov *domain.Override, user string) {
	if ov.Fields.AlarmsSet {
		kept := ov.Fields.Alarms[:0]
		for _, a := range ov.Fields.Alarms {
			if a.Owner != user {
				kept = append(kept, a)
			}
		}
		ov.Fields.Alarms = kept
	}
	if ov.Fields.XPropsSet {
		kept := ov.Fields.XProps[:0]
		for _, x := range ov.Fields.XProps {
			if x.Name == domain.XPropPerUserTransp && x.Param("OWNER") == user {
				continue
			}
			kept = append(kept, x)
		}
		ov.Fields.XProps = kept
	}
}

func hasForeignUserData(ov *domain.Override, user string) bool {
	for _, a := range ov.Fields.Alarms {
		if a.Owner != user {
			return true
		}
	}
	for _, x := range ov.Fields.XProps {
		if x.Name == domain.XPropPerUserTransp && x.Param("OWNER") != user {
			return true
		}
	}
	return false
}
