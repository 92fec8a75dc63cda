// Package convert implements the component→entity conversion and
// reconciliation algorithm: it classifies a parsed iCalendar component,
// resolves its identity against batch and stored state, merges every wire
// property with change tracking, recurses into sub-components, and
// finalizes timestamps and flags.
package convert

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"go.uber.org/zap"

	"gitea.jw6.us/james/calconv/internal/change"
	"gitea.jw6.us/james/calconv/internal/domain"
	"gitea.jw6.us/james/calconv/internal/metrics"
	"gitea.jw6.us/james/calconv/internal/override"
	"gitea.jw6.us/james/calconv/internal/scheduling"
	"gitea.jw6.us/james/calconv/internal/store"
)

// Component names go-ical has no constants for.
const (
	compAvailability = "VAVAILABILITY"
	compAvailable    = "AVAILABLE"
	compPoll         = "VPOLL"
	compParticipant  = "PARTICIPANT"
	compVLocation    = "VLOCATION"
)

const propPollItemID = "POLL-ITEM-ID"

// MethodPublish is the iTIP method that forbids attendees under strict
// conformance.
const MethodPublish = "PUBLISH"

// Converter drives conversions. It holds no per-call state; everything a
// single call accumulates lives on the conversion struct, so a Converter
// is safe to share across calls for independent uids.
type Converter struct {
	cb   store.Callback
	tree *override.Tree
	log  *zap.Logger
}

func New(cb store.Callback, log *zap.Logger) *Converter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Converter{
		cb:   cb,
		tree: override.New(cb, log),
		log:  log,
	}
}

// conversion is the state of one Convert call.
type conversion struct {
	c     *Converter
	batch *Batch
	comp  *ical.Component

	typ    domain.EntityType
	uid    string
	target domain.EventRef
	master *domain.Entity
	table  *change.Table
	isNew  bool

	mergeAttendees bool
	hasXParams     bool

	incomingAtts   []*domain.Attendee
	sawAttendee    bool
	incomingParts  []*scheduling.Structured
	sawParticipant bool
}

func classify(name string) (domain.EntityType, bool) {
	switch name {
	case ical.CompEvent:
		return domain.TypeEvent, true
	case ical.CompToDo:
		return domain.TypeTodo, true
	case ical.CompJournal:
		return domain.TypeJournal, true
	case ical.CompFreeBusy:
		return domain.TypeFreeBusy, true
	case compAvailability:
		return domain.TypeAvailability, true
	case compAvailable:
		return domain.TypeAvailable, true
	case compPoll:
		return domain.TypePoll, true
	}
	return 0, false
}

// Convert translates one parsed component into the domain model,
// reconciling against previously stored state. Expected domain conditions
// come back as a typed *Error; unexpected faults wrap and propagate, with
// no partial ChangeTable committed on that path.
func (c *Converter) Convert(ctx context.Context, batch *Batch, comp *ical.Component, mergeAttendees bool) (res *Result, err error) {
	start := time.Now()
	kind := "unknown"
	if comp != nil {
		kind = strings.ToLower(comp.Name)
	}
	defer func() {
		metrics.ObserveConversion(kind, outcomeLabel(res, err), start)
	}()

	if comp == nil || len(comp.Props) == 0 {
		return nil, newErrorf(CodeEmptyComponent, "component has no properties")
	}

	typ, ok := classify(comp.Name)
	if !ok {
		return nil, newErrorf(CodeUnsupportedComponentType, "unsupported component %s", comp.Name)
	}

	uidProp := comp.Props.Get(ical.PropUID)
	if uidProp == nil || strings.TrimSpace(uidProp.Value) == "" {
		return nil, newErrorf(CodeMissingUID, "component has no parseable UID")
	}
	uid := strings.TrimSpace(uidProp.Value)

	rid, ridRange, err := recurrenceIDOf(comp)
	if err != nil {
		return nil, fmt.Errorf("parse recurrence id for %s: %w", uid, err)
	}

	cv := &conversion{
		c:              c,
		batch:          batch,
		comp:           comp,
		typ:            typ,
		uid:            uid,
		table:          change.NewTable(),
		mergeAttendees: mergeAttendees,
	}

	behindMaster, err := cv.resolveIdentity(ctx, rid, ridRange)
	if err != nil {
		return nil, err
	}

	if err := cv.setDates(rid); err != nil {
		return nil, err
	}
	if err := cv.mergeProps(ctx); err != nil {
		return nil, err
	}
	if err := cv.convertSubComponents(ctx); err != nil {
		return nil, err
	}
	if err := cv.applyParticipants(ctx); err != nil {
		return nil, err
	}
	cv.finalize()
	if cv.hasXParams {
		cv.storeRawCopy()
	}
	if err := cv.commit(); err != nil {
		return nil, err
	}

	cv.master.RecomputeRecurring()

	if behindMaster {
		return &Result{Status: StatusNotFound, Ref: cv.target, New: cv.isNew, Changes: cv.table}, nil
	}
	return &Result{Status: StatusOK, Entity: cv.master, Ref: cv.target, New: cv.isNew, Changes: cv.table}, nil
}

// resolveIdentity decides whether this component is a new entity, an
// existing master, or an existing/needed override, and binds the merge
// target. Returns true when the result must be the NotFound sentinel.
func (cv *conversion) resolveIdentity(ctx context.Context, rid *domain.DateTime, ridRange string) (bool, error) {
	if rid == nil {
		master := override.FindMasterInBatch(cv.uid, cv.batch.Entities)
		if master == nil {
			ents, err := cv.c.cb.GetEvents(ctx, cv.batch.ColPath, cv.uid)
			switch {
			case errors.Is(err, store.ErrNotFound):
				master = &domain.Entity{
					Type:      cv.typ,
					UID:       cv.uid,
					ColPath:   cv.batch.ColPath,
					Name:      cv.uid + ".ics",
					Owner:     cv.c.cb.CurrentPrincipal(),
					EndType:   domain.EndTypeNone,
					NewEntity: true,
				}
				cv.isNew = true
			case err != nil:
				return false, fmt.Errorf("fetch %s/%s: %w", cv.batch.ColPath, cv.uid, err)
			case len(ents) > 1:
				return false, newErrorf(CodeMoreThanOneMatch, "uid %s matched %d entities", cv.uid, len(ents))
			default:
				master = ents[0]
				override.MarkRetrieved(master)
			}
			cv.batch.Entities = append(cv.batch.Entities, master)
		}
		if master.Type != cv.typ {
			return false, newErrorf(CodeMismatchedEntityType, "uid %s is a %s, component is a %s",
				cv.uid, master.Type, cv.typ)
		}
		// A master component means the batch carries the full series
		// definition, even when an earlier override fetch flagged the
		// master instance-only. Pruning applies again.
		master.InstanceOnly = false
		cv.master = master
		cv.target = domain.Ref(master)
		return false, nil
	}

	resn, err := cv.c.tree.Resolve(ctx, cv.typ, cv.batch.ColPath, cv.uid, rid, ridRange, cv.batch.Entities)
	if err != nil {
		if errors.Is(err, override.ErrMoreThanOneMatch) {
			return false, newErrorf(CodeMoreThanOneMatch, "uid %s matched more than one entity", cv.uid)
		}
		return false, err
	}
	if resn.Master.Type != cv.typ {
		return false, newErrorf(CodeMismatchedEntityType, "uid %s is a %s, instance is a %s",
			cv.uid, resn.Master.Type, cv.typ)
	}
	if resn.Synthesized || resn.FetchedMaster {
		cv.batch.Entities = append(cv.batch.Entities, resn.Master)
	}
	cv.master = resn.Master
	cv.target = resn.Proxy
	cv.isNew = !resn.Proxy.Entry().Retrieved
	return resn.Synthesized || resn.FetchedMaster, nil
}

// finalize applies the post-pass fixups: timestamp derivation, transport
// artifact stripping.
func (cv *conversion) finalize() {
	now := domain.FormatUTC(time.Now())

	if cv.target.Created() == "" {
		if lm := cv.target.LastModified(); lm != "" {
			cv.target.SetCreated(lm)
		} else {
			cv.target.SetCreated(now)
			cv.target.SetLastModified(now)
		}
	}
	if cv.target.LastModified() == "" {
		cv.target.SetLastModified(cv.target.Created())
	}
	if cv.target.DTStamp() == "" {
		cv.target.SetDTStamp(cv.target.LastModified())
	}

	// Recipients and originator are transport artifacts; they are never
	// persisted on the stored copy.
	cv.master.Recipients = nil
	cv.master.Originator = ""
}

// FinishBatch runs the end-of-reconciliation pruning pass over every
// master the batch touched, removing overrides that were retrieved but
// never mentioned again. Returns removed recurrence ids per uid.
func (c *Converter) FinishBatch(batch *Batch) map[string][]string {
	user := c.cb.CurrentPrincipal()
	removed := make(map[string][]string)
	for _, e := range batch.Entities {
		if e.RecurrenceID != "" {
			continue
		}
		if rids := c.tree.Prune(e, user); len(rids) > 0 {
			removed[e.UID] = rids
		}
	}
	return removed
}

func outcomeLabel(res *Result, err error) string {
	if err != nil {
		var ce *Error
		if errors.As(err, &ce) {
			return string(ce.Code)
		}
		return "error"
	}
	if res != nil && res.Status == StatusNotFound {
		return "not_found"
	}
	return "ok"
}
